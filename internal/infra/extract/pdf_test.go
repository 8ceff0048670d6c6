package extract

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	p := NewPDF(0)
	for name, data := range map[string][]byte{
		"empty":      nil,
		"plain text": []byte("Revenue grew 10%"),
		"truncated":  []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\n"),
	} {
		t.Run(name, func(t *testing.T) {
			text, err := p.Extract(context.Background(), data)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Contains(t, err.Error(), "open PDF")
			assert.ErrorIs(t, err, documents.ErrUnreadable)
		})
	}
}

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	n := len(pages)
	fontID := 3 + 2*n
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i := range pages {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontID, 3+n+i))
	}
	for _, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPageMarkers(t *testing.T) {
	data := buildPDF("Revenue grew", "Margins fell")

	text, err := NewPDF(0).Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "[Page 1]\nRevenue grew\n\n[Page 2]\nMargins fell", text)

	text, err = NewPDF(5).Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "[Page 1]\nRevenue grew", text)
}

func TestExtractNoText(t *testing.T) {
	_, err := NewPDF(0).Extract(context.Background(), buildPDF(""))
	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.ErrorIs(t, err, documents.ErrNoText)
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDF(0).Extract(ctx, buildPDF("Revenue grew"))
	require.ErrorIs(t, err, context.Canceled)
}
