package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/corpusqa/corpusqa/models"
)

// LoadXLSX extracts one chunk per non-empty sheet, rows rendered the same
// way as CSV. The sheet name is the locator.
func LoadXLSX(path string) ([]models.Chunk, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	var chunks []models.Chunk
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, path, err)
		}
		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text: strings.Join(lines, "\n"),
			Meta: models.ChunkMeta{Source: source, Format: "xlsx", Sheet: sheet},
		})
	}
	return chunks, nil
}

// LoadDOCX extracts the document body as a single chunk, paragraphs
// separated by newlines. Word documents carry no inner locator.
func LoadDOCX(path string) ([]models.Chunk, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", path, err)
	}
	defer r.Close()

	var text string
	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text, err = ooxmlText(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		break
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []models.Chunk{{
		Text: text,
		Meta: models.ChunkMeta{Source: filepath.Base(path), Format: "docx"},
	}}, nil
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// LoadPPTX extracts one chunk per non-blank slide, in slide order. Slides
// are 1-based in the locator.
func LoadPPTX(path string) ([]models.Chunk, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening pptx %s: %w", path, err)
	}
	defer r.Close()

	type slideFile struct {
		n int
		f *zip.File
	}
	var slides []slideFile
	for _, f := range r.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{n: n, f: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	source := filepath.Base(path)
	var chunks []models.Chunk
	for _, s := range slides {
		rc, err := s.f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading slide %d of %s: %w", s.n, path, err)
		}
		text, err := ooxmlText(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing slide %d of %s: %w", s.n, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text: text,
			Meta: models.ChunkMeta{Source: source, Format: "pptx", Slide: s.n},
		})
	}
	return chunks, nil
}

// ooxmlText collects the character data of every text run (<w:t> in
// WordprocessingML, <a:t> in DrawingML), ending a line at each paragraph
// close (<w:p>, <a:p>). Both vocabularies use the local names "t" and "p".
func ooxmlText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText--
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText > 0 {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
