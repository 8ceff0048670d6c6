package documents

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

// ContentTypePDF is the only upload type accepted for analysis.
const ContentTypePDF = "application/pdf"

var (
	// ErrNotPDF is returned for uploads whose content is not a PDF document.
	ErrNotPDF = errors.New("only PDF files are allowed")
	// ErrUnreadable is returned for corrupt or malformed documents.
	ErrUnreadable = errors.New("document could not be read")
	// ErrNoText is returned when a document has no text layer, usually a scan.
	ErrNoText = errors.New("document contains no extractable text")
)

// Upload is a user supplied document held in memory for one request.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// DetectContentType sniffs data and returns its media type without parameters.
func DetectContentType(data []byte) string {
	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

// IsPDF reports whether the upload content is a PDF, regardless of what the
// client declared.
func (u Upload) IsPDF() bool {
	return DetectContentType(u.Data) == ContentTypePDF
}

// DeclaredPDF reports whether the declared media type is application/pdf.
func (u Upload) DeclaredPDF() bool {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(u.ContentType))
	return err == nil && mt == ContentTypePDF
}
