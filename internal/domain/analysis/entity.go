package analysis

import (
	"errors"
	"time"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

var (
	// ErrNoCompany is returned when a request names no company.
	ErrNoCompany = errors.New("no company selected for analysis")
	// ErrNoSelection is returned when neither filings nor uploads were chosen.
	ErrNoSelection = errors.New("no files or filings selected for analysis")
	// ErrNotFound is returned for unknown analysis ids.
	ErrNotFound = errors.New("analysis not found")
)

// ID identifier type
type ID string

// UploadRef records an uploaded document that fed an analysis.
type UploadRef struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Chars int    `json:"chars"`
}

// Analysis is one completed bull/bear analysis, kept for history and retrieval.
type Analysis struct {
	ID         ID               `json:"id"`
	Company    company.Info     `json:"companyData"`
	Filings    []filings.Filing `json:"filings"`
	Uploads    []UploadRef      `json:"uploads"`
	Model      string           `json:"model,omitempty"`
	Result     string           `json:"AiAnalysisTextResponse"`
	DurationMS int64            `json:"duration_ms"`
	CreatedAt  time.Time        `json:"created_at"`
}
