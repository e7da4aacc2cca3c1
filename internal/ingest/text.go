package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpusqa/corpusqa/models"
)

// LoadText reads a plain-text or markdown file as a single chunk with no
// inner locator.
func LoadText(path string) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return []models.Chunk{{
		Text: text,
		Meta: models.ChunkMeta{Source: filepath.Base(path), Format: format},
	}}, nil
}

// LoadCSV renders tabular data as one chunk, rows joined as " | " lines, the
// way a spreadsheet sheet is flattened for retrieval. The sheet locator is
// the file's base name without extension.
func LoadCSV(path string) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var lines []string
	for _, rec := range records {
		line := strings.TrimSpace(strings.Join(rec, " | "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}
	base := filepath.Base(path)
	sheet := strings.TrimSuffix(base, filepath.Ext(base))
	return []models.Chunk{{
		Text: strings.Join(lines, "\n"),
		Meta: models.ChunkMeta{Source: base, Format: "csv", Sheet: sheet},
	}}, nil
}
