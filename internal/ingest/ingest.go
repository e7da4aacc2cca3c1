package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpusqa/corpusqa/config"
	"github.com/corpusqa/corpusqa/internal/telemetry"
	"github.com/corpusqa/corpusqa/internal/vectorstore"
)

// Ingestor walks a documents directory, loads and splits every supported
// file and upserts the result into the vector index.
type Ingestor struct {
	registry *Registry
	splitter *Splitter
	index    vectorstore.Index
	logger   *log.Logger
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files   int
	Skipped int
	Chunks  int
}

func NewIngestor(cfg config.IngestConfig, index vectorstore.Index, logger *log.Logger) *Ingestor {
	return &Ingestor{
		registry: NewRegistry(),
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		index:    index,
		logger:   logger,
	}
}

// Run ingests every supported file under dir. Files with unsupported
// extensions are counted as skipped; a file that fails to load aborts the
// run so a partial index is not mistaken for a complete one.
func (in *Ingestor) Run(ctx context.Context, dir string) (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := in.registry.loaders[ext]; !ok {
			stats.Skipped++
			return nil
		}

		loaded, err := in.registry.Load(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		chunks := in.splitter.Split(loaded)
		if len(chunks) == 0 {
			stats.Skipped++
			return nil
		}
		if err := in.index.Upsert(ctx, chunks); err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
		in.logger.Printf("indexed %s: %d chunks", d.Name(), len(chunks))
		telemetry.ObserveIngest(len(chunks))
		stats.Files++
		stats.Chunks += len(chunks)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return stats, fmt.Errorf("documents directory %s does not exist", dir)
		}
		return stats, err
	}
	return stats, nil
}
