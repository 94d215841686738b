// Package pdftext extracts the text layer of PDF files.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// Extractor reads PDF text page by page. Pages whose content streams
// cannot be decoded are skipped rather than failing the whole file.
type Extractor struct{}

var _ driven.TextExtractor = (*Extractor)(nil)

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the concatenated page texts of the PDF at path,
// joined with blank lines, and the number of pages that contributed
// text.
func (e *Extractor) Extract(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		text, err := pageText(r, i)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", 0, fmt.Errorf("no extractable text in %s", path)
	}

	return strings.Join(pages, "\n\n"), len(pages), nil
}

// pageText decodes one page, converting the parser's panics on
// malformed content streams into errors.
func pageText(r *pdf.Reader, number int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", number, rec)
		}
	}()

	page := r.Page(number)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", number)
	}
	return page.GetPlainText(nil)
}
