package filings

import (
	"context"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
)

// Source lists companies and their recent filings from the regulator.
type Source interface {
	Recent(ctx context.Context, cik string, formTypes []string) (*CompanyData, []Filing, error)
	Search(ctx context.Context, query string, limit int) ([]company.Listing, error)
}

// DocumentSource returns the plain text of a filing's primary document.
type DocumentSource interface {
	FilingText(ctx context.Context, f Filing) (string, error)
}
