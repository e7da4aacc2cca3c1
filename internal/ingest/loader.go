// Package ingest extracts text from corpus files and feeds the vector index.
package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corpusqa/corpusqa/models"
)

// Loader extracts pre-split chunks (pages, sheets) from a single file.
type Loader func(path string) ([]models.Chunk, error)

// Registry maps lowercase file extensions to loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns a registry with the built-in formats registered.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(".pdf", LoadPDF)
	r.Register(".txt", LoadText)
	r.Register(".md", LoadText)
	r.Register(".csv", LoadCSV)
	r.Register(".xlsx", LoadXLSX)
	r.Register(".docx", LoadDOCX)
	r.Register(".pptx", LoadPPTX)
	return r
}

func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

// Supported reports the registered extensions, sorted.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load dispatches on the file extension. Unknown extensions are an error.
func (r *Registry) Load(path string) ([]models.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q", ext)
	}
	return loader(path)
}
