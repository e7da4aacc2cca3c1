package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/corpusqa/corpusqa/models"
)

// LoadPDF extracts one chunk per non-blank page. Pages are 1-based in the
// locator.
func LoadPDF(path string) ([]models.Chunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	var chunks []models.Chunk
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unextractable pages are skipped, not fatal; scanned pages
			// have no text layer at all.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text: text,
			Meta: models.ChunkMeta{Source: source, Format: "pdf", Page: i},
		})
	}
	return chunks, nil
}
