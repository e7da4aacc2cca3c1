package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeZip(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for entry, content := range entries {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("adding %s: %v", entry, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return path
}

func TestLoadXLSXPerSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "region"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	_ = f.SetCellValue("Sheet1", "B1", "revenue")
	_ = f.SetCellValue("Sheet1", "A2", "north")
	_ = f.SetCellValue("Sheet1", "B2", 100)
	if _, err := f.NewSheet("Costs"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	_ = f.SetCellValue("Costs", "A1", "rent")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	chunks, err := LoadXLSX(path)
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected one chunk per sheet, got %d", len(chunks))
	}
	if chunks[0].Meta.Sheet != "Sheet1" || chunks[1].Meta.Sheet != "Costs" {
		t.Fatalf("unexpected sheets %q, %q", chunks[0].Meta.Sheet, chunks[1].Meta.Sheet)
	}
	if chunks[0].Text != "region | revenue\nnorth | 100" {
		t.Fatalf("unexpected sheet text %q", chunks[0].Text)
	}
	if chunks[0].Meta.Locator() != "sheet Sheet1" {
		t.Fatalf("unexpected locator %q", chunks[0].Meta.Locator())
	}
	if chunks[0].Meta.Source != "report.xlsx" || chunks[0].Meta.Format != "xlsx" {
		t.Fatalf("unexpected meta %+v", chunks[0].Meta)
	}
}

func TestLoadDOCX(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	path := writeZip(t, t.TempDir(), "notes.docx", map[string]string{
		"word/document.xml":   doc,
		"[Content_Types].xml": `<Types/>`,
	})

	chunks, err := LoadDOCX(path)
	if err != nil {
		t.Fatalf("LoadDOCX: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "First paragraph.\nSecond paragraph." {
		t.Fatalf("unexpected text %q", chunks[0].Text)
	}
	if chunks[0].Meta.Format != "docx" || chunks[0].Meta.Locator() != "" {
		t.Fatalf("unexpected meta %+v", chunks[0].Meta)
	}
}

func TestLoadDOCXEmptyBodyYieldsNothing(t *testing.T) {
	path := writeZip(t, t.TempDir(), "blank.docx", map[string]string{
		"word/document.xml": `<w:document xmlns:w="x"><w:body/></w:document>`,
	})
	chunks, err := LoadDOCX(path)
	if err != nil {
		t.Fatalf("LoadDOCX: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestLoadPPTXPerSlideInOrder(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:p="x" xmlns:a="y"><p:cSld><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:cSld></p:sld>`
	}
	// Slide 10 sorts after slide 2 numerically, not lexically.
	path := writeZip(t, t.TempDir(), "deck.pptx", map[string]string{
		"ppt/slides/slide1.xml":  slide("intro"),
		"ppt/slides/slide2.xml":  slide("middle"),
		"ppt/slides/slide10.xml": slide("closing"),
		"ppt/slides/slide3.xml":  `<p:sld xmlns:p="x"/>`,
	})

	chunks, err := LoadPPTX(path)
	if err != nil {
		t.Fatalf("LoadPPTX: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 non-blank slides, got %d", len(chunks))
	}
	for i, want := range []struct {
		slide int
		text  string
	}{{1, "intro"}, {2, "middle"}, {10, "closing"}} {
		if chunks[i].Meta.Slide != want.slide || chunks[i].Text != want.text {
			t.Fatalf("slide %d: got %+v, want %+v", i, chunks[i], want)
		}
	}
	if chunks[2].Meta.Locator() != "slide 10" {
		t.Fatalf("unexpected locator %q", chunks[2].Meta.Locator())
	}
}
