package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/cft-genai/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const selectColumns = `id, company_name, industry, filings_json, uploads_json, model, result_text, duration_ms, created_at`

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO filing_analyses
  (id, company_name, industry, filings_json, uploads_json, model, result_text, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  result_text=EXCLUDED.result_text,
  duration_ms=EXCLUDED.duration_ms;
`
	filingsJSON, err := jsonOrEmpty(a.Filings)
	if err != nil {
		return fmt.Errorf("encode filings: %w", err)
	}
	uploadsJSON, err := jsonOrEmpty(a.Uploads)
	if err != nil {
		return fmt.Errorf("encode uploads: %w", err)
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		string(a.ID),
		a.Company.Name,
		stringOrDash(a.Company.Industry),
		filingsJSON,
		uploadsJSON,
		stringOrDash(a.Model),
		a.Result,
		a.DurationMS,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	return nil
}

// Get returns one analysis or domain.ErrNotFound
func (r *AnalysisRepository) Get(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	q := `SELECT ` + selectColumns + ` FROM filing_analyses WHERE id=$1`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + selectColumns + `
FROM filing_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of stored analyses
func (r *AnalysisRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM filing_analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

func scanAnalysis(s interface{ Scan(dest ...any) error }) (*domain.Analysis, error) {
	var (
		a                        domain.Analysis
		id                       string
		filingsJSON, uploadsJSON []byte
	)
	err := s.Scan(&id, &a.Company.Name, &a.Company.Industry, &filingsJSON, &uploadsJSON,
		&a.Model, &a.Result, &a.DurationMS, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = domain.ID(id)
	a.Company.Industry = dashOrEmpty(a.Company.Industry)
	a.Model = dashOrEmpty(a.Model)
	if err := json.Unmarshal(filingsJSON, &a.Filings); err != nil {
		return nil, fmt.Errorf("decode filings of %s: %w", id, err)
	}
	if err := json.Unmarshal(uploadsJSON, &a.Uploads); err != nil {
		return nil, fmt.Errorf("decode uploads of %s: %w", id, err)
	}
	return &a, nil
}
