package analysis

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/cft-genai/internal/application"
	"github.com/bryanwahyu/cft-genai/internal/domain/ai"
	domain "github.com/bryanwahyu/cft-genai/internal/domain/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/logging"
)

// Service runs one bull/bear analysis per request: collect document text,
// send it to the analyzer once, persist the outcome.
// Service is safe for concurrent use when its dependencies are.
type Service struct {
	AI        ai.Analyzer
	Documents filings.DocumentSource
	Extractor documents.Extractor
	// Store and Repo are optional.
	Store  documents.Store
	Repo   domain.Repository
	Clock  application.Clock
	Model  string
	Logger *zap.Logger
}

// Request is the selection a user submits for analysis.
type Request struct {
	Company company.Info
	Filings []filings.Filing
	Uploads []documents.Upload
}

// Validate checks the request without touching the network.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Company.Name) == "" {
		return domain.ErrNoCompany
	}
	if len(r.Filings) == 0 && len(r.Uploads) == 0 {
		return domain.ErrNoSelection
	}
	for _, u := range r.Uploads {
		if !u.IsPDF() {
			return fmt.Errorf("%w: %s", documents.ErrNotPDF, u.Name)
		}
	}
	return nil
}

// Analyze gathers the text of every selected filing and upload, asks the
// analyzer once, and returns the stored analysis. Documents are processed in
// selection order, filings first.
func (s *Service) Analyze(ctx context.Context, req Request) (*domain.Analysis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrNop(s.Logger)
	clock := s.clock()
	start := clock.Now()
	id := domain.ID(uuid.New().String())

	sections := make([]string, 0, len(req.Filings)+len(req.Uploads))
	for _, f := range req.Filings {
		if s.Documents == nil {
			return nil, errors.New("filing documents are not configured")
		}
		text, err := s.Documents.FilingText(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("filing %s: %w", f.AccessionNumber, err)
		}
		sections = append(sections, section(f.Label(), text))
	}

	uploads := make([]domain.UploadRef, 0, len(req.Uploads))
	for _, u := range req.Uploads {
		if s.Extractor == nil {
			return nil, errors.New("pdf extraction is not configured")
		}
		text, err := s.Extractor.Extract(ctx, u.Data)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", u.Name, err)
		}
		uploads = append(uploads, domain.UploadRef{Name: u.Name, Chars: len(text)})
		sections = append(sections, section(u.Name, text))
	}

	result, err := s.AI.Analyze(ctx, req.Company, strings.Join(sections, "\n\n"))
	if err != nil {
		return nil, err
	}

	// archive only once the completion has succeeded
	if s.Store != nil {
		for i, u := range req.Uploads {
			url, err := s.Store.Put(ctx, uploadKey(id, i, u.Name), u.Data, documents.ContentTypePDF)
			if err != nil {
				logger.Warn("upload archive failed", zap.String("name", u.Name), zap.Error(err))
				continue
			}
			uploads[i].URL = url
		}
	}

	a := &domain.Analysis{
		ID:         id,
		Company:    req.Company,
		Filings:    req.Filings,
		Uploads:    uploads,
		Model:      s.Model,
		Result:     result,
		DurationMS: clock.Now().Sub(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if s.Repo != nil {
		if err := s.Repo.Save(ctx, a); err != nil {
			// the analysis is still returned to the caller
			logger.Error("analysis save failed", zap.String("id", string(id)), zap.Error(err))
		}
	}
	logger.Info("analysis completed",
		zap.String("id", string(id)),
		zap.String("company", req.Company.Name),
		zap.Int("filings", len(req.Filings)),
		zap.Int("uploads", len(req.Uploads)),
		zap.Int64("duration_ms", a.DurationMS),
	)
	return a, nil
}

// List returns one page of stored analyses, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if s.Repo == nil {
		return domain.NewPaginatedResult(nil, page, pageSize, 0), nil
	}
	items, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	return domain.NewPaginatedResult(items, page, pageSize, total), nil
}

// Get returns a stored analysis by id.
func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	if s.Repo == nil {
		return nil, domain.ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func section(label, text string) string {
	return "=== " + label + " ===\n" + text
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func uploadKey(id domain.ID, i int, name string) string {
	base := unsafeName.ReplaceAllString(path.Base(strings.ReplaceAll(name, `\`, "/")), "_")
	return fmt.Sprintf("uploads/%s/%d-%s", id, i, base)
}
