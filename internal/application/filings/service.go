package filings

import (
	"context"
	"strings"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	domain "github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Service answers company lookups and recent filing listings.
type Service struct {
	Source domain.Source
}

func NewService(src domain.Source) *Service {
	return &Service{Source: src}
}

// Recent returns the company profile and its latest filing per form type.
func (s *Service) Recent(ctx context.Context, cik string, formTypes []string) (*domain.CompanyData, []domain.Filing, error) {
	norm, err := domain.NormalizeCIK(cik)
	if err != nil {
		return nil, nil, err
	}
	data, out, err := s.Source.Recent(ctx, norm, domain.NormalizeFormTypes(formTypes))
	if err != nil {
		return nil, nil, err
	}
	if out == nil {
		out = []domain.Filing{}
	}
	return data, out, nil
}

// Search looks companies up by ticker, CIK or name.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]company.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []company.Listing{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	return s.Source.Search(ctx, query, limit)
}
