package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/cft-genai/internal/application/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/ai"
	domain "github.com/bryanwahyu/cft-genai/internal/domain/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/middleware"
)

const testID = "9b2f6c1e-3d7a-4c5b-8e9f-0a1b2c3d4e5f"

type fakeAnalysis struct {
	got    appanalysis.Request
	calls  int
	result string
	err    error
}

func (f *fakeAnalysis) Analyze(_ context.Context, req appanalysis.Request) (*domain.Analysis, error) {
	f.calls++
	f.got = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Analysis{ID: testID, Company: req.Company, Result: f.result}, nil
}

func (f *fakeAnalysis) List(_ context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	return domain.NewPaginatedResult([]*domain.Analysis{{ID: testID}}, page, pageSize, 1), nil
}

func (f *fakeAnalysis) Get(_ context.Context, id domain.ID) (*domain.Analysis, error) {
	if id != testID {
		return nil, domain.ErrNotFound
	}
	return &domain.Analysis{ID: id, Result: "**Bull**\n- growth"}, nil
}

type fakeFilings struct {
	cik       string
	formTypes []string
	err       error
}

func (f *fakeFilings) Recent(_ context.Context, cik string, formTypes []string) (*filings.CompanyData, []filings.Filing, error) {
	f.cik, f.formTypes = cik, formTypes
	if f.err != nil {
		return nil, nil, f.err
	}
	return &filings.CompanyData{CIK: "320193", Name: "Apple Inc.", SICDescription: "Electronic Computers"},
		[]filings.Filing{{CIK: "320193", FormType: "10-K", AccessionNumber: "0000320193-24-000123"}}, nil
}

func (f *fakeFilings) Search(_ context.Context, query string, limit int) ([]company.Listing, error) {
	return []company.Listing{{CIK: "320193", Ticker: "AAPL", Title: "Apple Inc."}}, nil
}

func newTestRouter(a *fakeAnalysis, f *fakeFilings, opts Options) http.Handler {
	return NewRouter(a, f, opts)
}

type part struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestAnalyze(t *testing.T) {
	a := &fakeAnalysis{result: "**Bull case**\n- Strong growth\n---\nBear case"}
	h := newTestRouter(a, &fakeFilings{}, Options{})

	req := multipartRequest(t, map[string]string{
		"companyData":     `{"name":"Acme Corp","industry":"Industrials"}`,
		"selectedFilings": `[{"cik":"320193","formType":"10-K","accessionNumber":"0000320193-24-000123","primaryDocument":"aapl-20240928.htm"}]`,
	}, part{field: "uploadedFiles", name: "q3.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4 deck")})

	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		ID      string           `json:"id"`
		Result  string           `json:"AiAnalysisTextResponse"`
		Report  []map[string]any `json:"report"`
		Company company.Info     `json:"companyData"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, testID, body.ID)
	assert.Equal(t, a.result, body.Result)
	assert.Len(t, body.Report, 3)
	assert.Equal(t, "Acme Corp", body.Company.Name)

	require.Len(t, a.got.Filings, 1)
	assert.Equal(t, "aapl-20240928.htm", a.got.Filings[0].PrimaryDocument)
	require.Len(t, a.got.Uploads, 1)
	assert.Equal(t, "q3.pdf", a.got.Uploads[0].Name)
	assert.Equal(t, []byte("%PDF-1.4 deck"), a.got.Uploads[0].Data)
}

func TestAnalyzeErrors(t *testing.T) {
	acme := `{"name":"Acme Corp","industry":"Industrials"}`
	pdf := part{field: "uploadedFiles", name: "a.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4 x")}

	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		svcErr  error
		status  int
		message string
	}{
		{
			name:    "no company",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, nil, pdf) },
			status:  http.StatusBadRequest,
			message: "No company selected for analysis.",
		},
		{
			name:    "nothing selected",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, map[string]string{"companyData": acme}) },
			status:  http.StatusBadRequest,
			message: "No files or filings selected for analysis.",
		},
		{
			name: "not a pdf",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"companyData": acme},
					part{field: "uploadedFiles", name: "a.pdf", contentType: "application/pdf", data: []byte("plain text")})
			},
			status:  http.StatusBadRequest,
			message: "Only PDF files are allowed.",
		},
		{
			name: "unsafe filing",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{
					"companyData":     acme,
					"selectedFilings": `[{"cik":"1","formType":"10-K","accessionNumber":"0000000001-24-000001","primaryDocument":"../../x"}]`,
				})
			},
			status: http.StatusBadRequest,
		},
		{
			name: "bad json",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"companyData": "{"}, pdf)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("{}"))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			status: http.StatusBadRequest,
		},
		{
			name:    "quota",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, map[string]string{"companyData": acme}, pdf) },
			svcErr:  &ai.APIError{StatusCode: 429, Message: "Rate limit reached"},
			status:  http.StatusTooManyRequests,
			message: "GPT API error: Rate limit reached",
		},
		{
			name:    "upstream",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, map[string]string{"companyData": acme}, pdf) },
			svcErr:  &ai.APIError{StatusCode: 401, Message: "Incorrect API key provided"},
			status:  http.StatusBadGateway,
			message: "GPT API error: Incorrect API key provided",
		},
		{
			name:    "invalid response",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, map[string]string{"companyData": acme}, pdf) },
			svcErr:  ai.ErrInvalidResponse,
			status:  http.StatusBadGateway,
			message: ai.MsgInvalidResponse,
		},
		{
			name:    "unexpected",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, map[string]string{"companyData": acme}, pdf) },
			svcErr:  errors.New("dial tcp: connection refused"),
			status:  http.StatusInternalServerError,
			message: ai.MsgUnexpected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&fakeAnalysis{err: tt.svcErr, result: "ok"}, &fakeFilings{}, Options{})
			rec := serve(h, tt.req(t))
			assert.Equal(t, tt.status, rec.Code)
			msg := errorBody(t, rec)
			if tt.message != "" {
				assert.Equal(t, tt.message, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestAnalyzeUploadTooLarge(t *testing.T) {
	a := &fakeAnalysis{result: "ok"}
	h := newTestRouter(a, &fakeFilings{}, Options{MaxUploadBytes: 1024})

	big := part{field: "uploadedFiles", name: "a.pdf", contentType: "application/pdf", data: append([]byte("%PDF-1.4 "), make([]byte, 4096)...)}
	rec := serve(h, multipartRequest(t, map[string]string{"companyData": `{"name":"Acme"}`}, big))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, a.calls)
}

func TestAnalyzeRateLimited(t *testing.T) {
	h := newTestRouter(&fakeAnalysis{result: "ok"}, &fakeFilings{}, Options{RateLimiter: middleware.NewRateLimiter(0.001, 1)})
	pdf := part{field: "uploadedFiles", name: "a.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4 x")}
	fields := map[string]string{"companyData": `{"name":"Acme"}`}

	assert.Equal(t, http.StatusOK, serve(h, multipartRequest(t, fields, pdf)).Code)
	rec := serve(h, multipartRequest(t, fields, pdf))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// other endpoints are not limited
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/api/analyses", nil)).Code)
}

func TestFilings(t *testing.T) {
	f := &fakeFilings{}
	h := newTestRouter(&fakeAnalysis{}, f, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/filings?CIK=0000320193&formTypes=10-K,,10-q", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0000320193", f.cik)
	assert.Equal(t, []string{"10-K", "10-q"}, f.formTypes)

	var body struct {
		CompanyData filings.CompanyData `json:"companyData"`
		Filings     []filings.Filing    `json:"filings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Electronic Computers", body.CompanyData.SICDescription)
	assert.Len(t, body.Filings, 1)
}

func TestFilingsErrors(t *testing.T) {
	h := newTestRouter(&fakeAnalysis{}, &fakeFilings{}, Options{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/filings?CIK=apple", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid CIK.", errorBody(t, rec))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/filings?CIK=1&formTypes=10-K%2C%3Cx%3E", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "invalid form type")

	h = newTestRouter(&fakeAnalysis{}, &fakeFilings{err: filings.ErrInvalidCIK}, Options{})
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/filings?CIK=999", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanies(t *testing.T) {
	h := newTestRouter(&fakeAnalysis{}, &fakeFilings{}, Options{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/companies?q=aapl", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Companies []company.Listing `json:"companies"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Companies, 1)
	assert.Equal(t, "AAPL", body.Companies[0].Ticker)
}

func TestAnalysesHistory(t *testing.T) {
	h := newTestRouter(&fakeAnalysis{}, &fakeFilings{}, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/analyses?page=0&page_size=500", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.PaginatedResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analyses/"+testID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		ID     string `json:"id"`
		Report []struct {
			Kind string `json:"kind"`
		} `json:"report"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, testID, got.ID)
	require.Len(t, got.Report, 2)
	assert.Equal(t, "bullets", got.Report[1].Kind)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analyses/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analyses/00000000-0000-0000-0000-000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthAndHealth(t *testing.T) {
	h := newTestRouter(&fakeAnalysis{}, &fakeFilings{}, Options{APIKeys: map[string]string{"web": "secret"}})

	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/live", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/ready", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(h, httptest.NewRequest(http.MethodGet, "/api/companies?q=a", nil)).Code)
	req := httptest.NewRequest(http.MethodGet, "/api/companies?q=a", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(&fakeAnalysis{}, &fakeFilings{}, Options{CORSOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serve(h, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorResponseMapping(t *testing.T) {
	status, _ := errorResponse(documents.ErrNotPDF)
	assert.Equal(t, http.StatusBadRequest, status)
	status, msg := errorResponse(ai.ErrInvalidPrompt)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ai.MsgInvalidPrompt, msg)
	status, _ = errorResponse(domain.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestErrorResponseUnreadableUpload(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"no text layer": {fmt.Errorf("upload scan.pdf: %w", documents.ErrNoText), "The uploaded PDF has no extractable text."},
		"corrupt":       {fmt.Errorf("upload a.pdf: open PDF: %w: %w", documents.ErrUnreadable, errors.New("missing startxref")), "The uploaded PDF could not be read."},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, msg := errorResponse(tt.err)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, msg)
		})
	}
}
