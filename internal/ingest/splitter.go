package ingest

import (
	"strings"

	"github.com/corpusqa/corpusqa/models"
)

// Splitter cuts loaded chunks into retrieval-sized windows, preferring
// paragraph, then line, then word boundaries. Windows overlap so answers
// spanning a cut survive retrieval.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// Split re-chunks each input, carrying its metadata onto every window.
func (s *Splitter) Split(chunks []models.Chunk) []models.Chunk {
	var out []models.Chunk
	for _, c := range chunks {
		for _, part := range s.splitText(c.Text) {
			out = append(out, models.Chunk{Text: part, Meta: c.Meta})
		}
	}
	return out
}

func (s *Splitter) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= s.Size {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	start := 0
	for start < len(runes) {
		end := start + s.Size
		if end >= len(runes) {
			parts = append(parts, strings.TrimSpace(string(runes[start:])))
			break
		}
		cut := s.findBoundary(runes, start, end)
		parts = append(parts, strings.TrimSpace(string(runes[start:cut])))
		next := cut - s.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	// Drop windows that trimmed down to nothing.
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findBoundary looks backwards from the window end for a paragraph break,
// then a newline, then a space; a hard cut is the last resort.
func (s *Splitter) findBoundary(runes []rune, start, end int) int {
	window := string(runes[start:end])
	// Searching only the second half keeps windows from collapsing.
	floor := len(window) / 2

	for _, sep := range []string{"\n\n", "\n", " "} {
		if idx := strings.LastIndex(window, sep); idx >= floor {
			return start + len([]rune(window[:idx+len(sep)]))
		}
	}
	return end
}
