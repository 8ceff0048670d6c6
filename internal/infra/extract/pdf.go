// Package extract provides text extraction for uploaded documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
)

// ErrEmptyDocument is returned when a PDF yields no text at all, which is
// usually a scanned document without a text layer.
var ErrEmptyDocument = documents.ErrNoText

// PDF extracts page text from PDF uploads.
type PDF struct {
	// MaxChars stops extraction once this many bytes of text are collected; 0 means no cap.
	MaxChars int
}

// NewPDF returns a PDF extractor.
func NewPDF(maxChars int) *PDF {
	return &PDF{MaxChars: maxChars}
}

// Extract returns the text of every page, each preceded by a "[Page N]"
// marker so the model can cite page numbers.
func (p *PDF) Extract(ctx context.Context, data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("open PDF: %w: %v", documents.ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w: %w", documents.ErrUnreadable, err)
	}

	var buf strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w: %w", i, documents.ErrUnreadable, err)
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		fmt.Fprintf(&buf, "[Page %d]\n%s\n\n", i, pageText)
		if p.MaxChars > 0 && buf.Len() >= p.MaxChars {
			break
		}
	}

	out := strings.TrimSpace(buf.String())
	if out == "" {
		return "", ErrEmptyDocument
	}
	return out, nil
}
