package filings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCIK is returned when a Central Index Key is not 1-10 digits.
var ErrInvalidCIK = errors.New("invalid CIK")

// DefaultFormTypes are the periodic and current reports offered for analysis.
var DefaultFormTypes = []string{"10-K", "10-Q", "8-K"}

// Filing is a regulatory filing record. It is passed through from the
// filings listing to the analysis request untouched.
type Filing struct {
	CIK             string `json:"cik,omitempty"`
	FormType        string `json:"formType"`
	AccessionNumber string `json:"accessionNumber"`
	FilingDate      string `json:"filingDate,omitempty"`
	ReportDate      string `json:"reportDate,omitempty"`
	PrimaryDocument string `json:"primaryDocument,omitempty"`
	Description     string `json:"primaryDocDescription,omitempty"`
	URL             string `json:"url,omitempty"`
}

// Label is the human readable name used as a section header in prompts.
func (f Filing) Label() string {
	label := f.FormType
	if f.FilingDate != "" {
		label += " filed " + f.FilingDate
	}
	if f.ReportDate != "" {
		label += " for period " + f.ReportDate
	}
	return label
}

// CompanyData is the company profile returned alongside recent filings.
type CompanyData struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	SIC            string   `json:"sic,omitempty"`
	SICDescription string   `json:"sicDescription"`
	Tickers        []string `json:"tickers,omitempty"`
	Exchanges      []string `json:"exchanges,omitempty"`
	FiscalYearEnd  string   `json:"fiscalYearEnd,omitempty"`
}

// NormalizeCIK strips an optional "CIK" prefix and leading zeros.
func NormalizeCIK(cik string) (string, error) {
	c := strings.TrimSpace(cik)
	c = strings.TrimPrefix(strings.ToUpper(c), "CIK")
	if c == "" || len(c) > 10 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCIK, cik)
	}
	for _, r := range c {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCIK, cik)
		}
	}
	c = strings.TrimLeft(c, "0")
	if c == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCIK, cik)
	}
	return c, nil
}

// PadCIK returns the ten digit zero padded form used by the submissions API.
func PadCIK(cik string) string {
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// NormalizeFormTypes upper-cases, trims and de-duplicates form types, falling
// back to DefaultFormTypes when none are given.
func NormalizeFormTypes(formTypes []string) []string {
	seen := make(map[string]bool, len(formTypes))
	out := make([]string, 0, len(formTypes))
	for _, ft := range formTypes {
		ft = strings.ToUpper(strings.TrimSpace(ft))
		if ft == "" || seen[ft] {
			continue
		}
		seen[ft] = true
		out = append(out, ft)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultFormTypes...)
	}
	return out
}
