package ingest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "  hello world\n")
	chunks, err := LoadText(path)
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello world" {
		t.Fatalf("unexpected text %q", chunks[0].Text)
	}
	if chunks[0].Meta.Source != "notes.txt" || chunks[0].Meta.Format != "txt" {
		t.Fatalf("unexpected meta %+v", chunks[0].Meta)
	}
	if chunks[0].Meta.Locator() != "" {
		t.Fatalf("plain text must carry no locator, got %q", chunks[0].Meta.Locator())
	}
}

func TestLoadTextMarkdownFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "readme.md", "# Title")
	chunks, err := LoadText(path)
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	if chunks[0].Meta.Format != "md" {
		t.Fatalf("expected format md, got %q", chunks[0].Meta.Format)
	}
}

func TestLoadTextEmptyFileYieldsNothing(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.txt", "  \n ")
	chunks, err := LoadText(path)
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sales.csv", "region,revenue\nnorth,100\nsouth,250\n")
	chunks, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := "region | revenue\nnorth | 100\nsouth | 250"
	if chunks[0].Text != want {
		t.Fatalf("text = %q, want %q", chunks[0].Text, want)
	}
	if chunks[0].Meta.Sheet != "sales" || chunks[0].Meta.Format != "csv" {
		t.Fatalf("unexpected meta %+v", chunks[0].Meta)
	}
	if chunks[0].Meta.Locator() != "sheet sales" {
		t.Fatalf("unexpected locator %q", chunks[0].Meta.Locator())
	}
}

func TestLoadCSVRaggedRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ragged.csv", "a,b,c\nd\n")
	chunks, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if chunks[0].Text != "a | b | c\nd" {
		t.Fatalf("unexpected text %q", chunks[0].Text)
	}
}

func TestRegistrySupported(t *testing.T) {
	r := NewRegistry()
	want := []string{".csv", ".docx", ".md", ".pdf", ".pptx", ".txt", ".xlsx"}
	if got := r.Supported(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Supported() = %v, want %v", got, want)
	}
}

func TestRegistryRejectsUnknownExtension(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Load("deck.key"); err == nil {
		t.Fatal("expected an error for an unregistered extension")
	}
}

func TestRegistryDispatchIsCaseInsensitive(t *testing.T) {
	path := writeFile(t, t.TempDir(), "NOTES.TXT", "upper case name")
	chunks, err := NewRegistry().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "upper case name" {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
}
