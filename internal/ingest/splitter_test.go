package ingest

import (
	"strings"
	"testing"

	"github.com/corpusqa/corpusqa/models"
)

func TestSplitShortTextIsOneWindow(t *testing.T) {
	s := NewSplitter(1000, 200)
	got := s.Split([]models.Chunk{{Text: "short text", Meta: models.ChunkMeta{Source: "a.txt"}}})
	if len(got) != 1 {
		t.Fatalf("expected 1 window, got %d", len(got))
	}
	if got[0].Text != "short text" {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
}

func TestSplitCarriesMetadataOntoEveryWindow(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	got := s.Split([]models.Chunk{{Text: text, Meta: models.ChunkMeta{Source: "report.pdf", Format: "pdf", Page: 7}}})
	if len(got) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(got))
	}
	for i, c := range got {
		if c.Meta.Source != "report.pdf" || c.Meta.Page != 7 {
			t.Fatalf("window %d lost its metadata: %+v", i, c.Meta)
		}
	}
}

func TestSplitRespectsWindowSize(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("word ", 100)
	for _, c := range s.Split([]models.Chunk{{Text: text}}) {
		if n := len([]rune(c.Text)); n > 50 {
			t.Fatalf("window of %d runes exceeds the size limit", n)
		}
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	s := NewSplitter(60, 0)
	text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40)
	got := s.Split([]models.Chunk{{Text: text}})
	if len(got) != 2 {
		t.Fatalf("expected 2 windows, got %d: %q", len(got), got)
	}
	if strings.Contains(got[0].Text, "b") {
		t.Fatalf("first window crossed the paragraph break: %q", got[0].Text)
	}
}

func TestSplitOverlapPreservesCutContext(t *testing.T) {
	s := NewSplitter(50, 20)
	words := make([]string, 40)
	for i := range words {
		words[i] = "word" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	text := strings.Join(words, " ")
	got := s.Split([]models.Chunk{{Text: text}})
	if len(got) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(got))
	}
	// Each window must re-carry the tail of its predecessor.
	for i := 1; i < len(got); i++ {
		prev := strings.Fields(got[i-1].Text)
		last := prev[len(prev)-1]
		if !strings.Contains(got[i].Text, last) {
			t.Fatalf("window %d dropped the overlap word %q: %q", i, last, got[i].Text)
		}
	}
}

func TestSplitDropsEmptyInput(t *testing.T) {
	s := NewSplitter(100, 20)
	if got := s.Split([]models.Chunk{{Text: "   \n\t  "}}); len(got) != 0 {
		t.Fatalf("expected no windows for blank input, got %d", len(got))
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.Size != 1000 {
		t.Fatalf("expected default size 1000, got %d", s.Size)
	}
	if s.Overlap != 200 {
		t.Fatalf("expected default overlap 200, got %d", s.Overlap)
	}
	if s := NewSplitter(100, 100); s.Overlap != 20 {
		t.Fatalf("overlap >= size must fall back to size/5, got %d", s.Overlap)
	}
}
