package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/cft-genai/internal/domain/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

var columns = []string{"id", "company_name", "industry", "filings_json", "uploads_json", "model", "result_text", "duration_ms", "created_at"}

func newRepo(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(db), mock
}

func TestSave(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO filing_analyses")).
		WithArgs("a1", "Acme Corp", "-", `[{"cik":"1","formType":"10-K","accessionNumber":""}]`, "[]", "gpt-4o-mini", "Bull case", int64(1200), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.Analysis{
		ID:         "a1",
		Company:    company.Info{Name: "Acme Corp"},
		Filings:    []filings.Filing{{CIK: "1", FormType: "10-K"}},
		Model:      "gpt-4o-mini",
		Result:     "Bull case",
		DurationMS: 1200,
		CreatedAt:  created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM filing_analyses WHERE id=$1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a1", "Acme Corp", "Industrials", `[{"cik":"1","formType":"10-K"}]`, `[{"name":"q3.pdf","chars":42}]`, "-", "Bear case", 900, created))

	a, err := repo.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("a1"), a.ID)
	assert.Equal(t, "Industrials", a.Company.Industry)
	assert.Empty(t, a.Model)
	require.Len(t, a.Filings, 1)
	assert.Equal(t, "10-K", a.Filings[0].FormType)
	require.Len(t, a.Uploads, 1)
	assert.Equal(t, 42, a.Uploads[0].Chars)
	assert.Equal(t, created, a.CreatedAt)
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM filing_analyses").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaginate(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "Beta", "-", "[]", "[]", "gpt-4o", "x", 1, now).
			AddRow("a", "Alpha", "-", "[]", "[]", "gpt-4o", "y", 2, now))

	out, err := repo.Paginate(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Beta", out[0].Company.Name)
	assert.Empty(t, out[0].Company.Industry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM filing_analyses")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
