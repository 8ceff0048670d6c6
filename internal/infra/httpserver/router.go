package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/cft-genai/internal/application/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/ai"
	domain "github.com/bryanwahyu/cft-genai/internal/domain/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/logging"
	"github.com/bryanwahyu/cft-genai/internal/middleware"
	"github.com/bryanwahyu/cft-genai/internal/report"
)

// AnalysisService is the analysis use case the router drives.
type AnalysisService interface {
	Analyze(ctx context.Context, req appanalysis.Request) (*domain.Analysis, error)
	List(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error)
	Get(ctx context.Context, id domain.ID) (*domain.Analysis, error)
}

// FilingsService is the company lookup use case the router drives.
type FilingsService interface {
	Recent(ctx context.Context, cik string, formTypes []string) (*filings.CompanyData, []filings.Filing, error)
	Search(ctx context.Context, query string, limit int) ([]company.Listing, error)
}

// Options holds the optional router collaborators.
type Options struct {
	Logger         *zap.Logger
	CORSOrigins    []string
	MaxUploadBytes int64
	APIKeys        map[string]string
	RateLimiter    *middleware.RateLimiter
	Metrics        *middleware.Metrics
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	analysis AnalysisService
	filings  FilingsService
	opts     Options
	logger   *zap.Logger
}

const defaultMaxUploadBytes = 32 << 20

func NewRouter(analysisSvc AnalysisService, filingsSvc FilingsService, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	r := &Router{analysis: analysisSvc, filings: filingsSvc, opts: opts, logger: logging.OrNop(opts.Logger)}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(r.logger))
	mux.Use(opts.Metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", opts.Metrics.Handler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		rt.Get("/companies", r.wrap(r.handleCompanies))
		rt.Get("/filings", r.wrap(r.handleFilings))
		rt.With(r.rateLimit).Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
	})

	return mux
}

func (r *Router) rateLimit(next http.Handler) http.Handler {
	if r.opts.RateLimiter == nil {
		return next
	}
	return middleware.RateLimit(r.opts.RateLimiter)(next)
}

// badRequest marks client input errors that have no domain sentinel.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, msg := errorResponse(err)
			if status >= 500 {
				r.logger.Error("request failed",
					zap.String("path", req.URL.Path),
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.Error(err),
				)
			}
			middleware.WriteError(w, status, msg)
		}
	}
}

// errorResponse maps an error to its status code and user facing message.
func errorResponse(err error) (int, string) {
	var br badRequest
	var apiErr *ai.APIError
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, br.msg
	case errors.Is(err, domain.ErrNoCompany):
		return http.StatusBadRequest, "No company selected for analysis."
	case errors.Is(err, domain.ErrNoSelection):
		return http.StatusBadRequest, "No files or filings selected for analysis."
	case errors.Is(err, documents.ErrNotPDF):
		return http.StatusBadRequest, "Only PDF files are allowed."
	case errors.Is(err, documents.ErrNoText):
		return http.StatusBadRequest, "The uploaded PDF has no extractable text."
	case errors.Is(err, documents.ErrUnreadable):
		return http.StatusBadRequest, "The uploaded PDF could not be read."
	case errors.Is(err, filings.ErrInvalidCIK):
		return http.StatusBadRequest, "Invalid CIK."
	case errors.Is(err, ai.ErrInvalidPrompt):
		return http.StatusBadRequest, ai.MsgInvalidPrompt
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, ai.UserMessage(err)
	case errors.As(err, &apiErr), errors.Is(err, ai.ErrInvalidResponse):
		return http.StatusBadGateway, ai.UserMessage(err)
	}
	return http.StatusInternalServerError, ai.MsgUnexpected
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// GET /api/companies?q=&limit=
func (r *Router) handleCompanies(w http.ResponseWriter, req *http.Request) error {
	q := middleware.SanitizeString(req.URL.Query().Get("q"))
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.filings.Search(req.Context(), q, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"companies": list})
}

// GET /api/filings?CIK=&formTypes=10-K,10-Q
func (r *Router) handleFilings(w http.ResponseWriter, req *http.Request) error {
	cik := req.URL.Query().Get("CIK")
	if cik == "" {
		cik = req.URL.Query().Get("cik")
	}
	if _, err := middleware.ValidateCIK(cik); err != nil {
		return err
	}

	var formTypes []string
	if raw := req.URL.Query().Get("formTypes"); raw != "" {
		for _, ft := range strings.Split(raw, ",") {
			if strings.TrimSpace(ft) == "" {
				continue
			}
			if err := middleware.ValidateFormType(ft); err != nil {
				return badRequest{msg: err.Error()}
			}
			formTypes = append(formTypes, ft)
		}
	}

	data, list, err := r.filings.Recent(req.Context(), cik, formTypes)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"companyData": data, "filings": list})
}

// analysisResponse is an analysis plus its display blocks.
type analysisResponse struct {
	*domain.Analysis
	Report []report.Block `json:"report"`
}

func newAnalysisResponse(a *domain.Analysis) analysisResponse {
	blocks := report.Format(a.Result)
	if blocks == nil {
		blocks = []report.Block{}
	}
	return analysisResponse{Analysis: a, Report: blocks}
}

// POST /api/analyze
// multipart: selectedFilings (JSON array), companyData (JSON object), uploadedFiles (PDF, repeated)
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) (err error) {
	done := r.opts.Metrics.AnalysisStarted()
	defer func() { done(err) }()

	analysisReq, err := r.parseAnalyzeRequest(w, req)
	if err != nil {
		return err
	}
	a, err := r.analysis.Analyze(req.Context(), analysisReq)
	if err != nil {
		return err
	}
	return writeJSON(w, newAnalysisResponse(a))
}

func (r *Router) parseAnalyzeRequest(w http.ResponseWriter, req *http.Request) (appanalysis.Request, error) {
	var out appanalysis.Request

	req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxUploadBytes)
	if err := req.ParseMultipartForm(r.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return out, badRequestf("upload exceeds %d bytes", r.opts.MaxUploadBytes)
		}
		return out, badRequestf("invalid multipart form: %v", err)
	}

	if raw := req.FormValue("companyData"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &out.Company); err != nil {
			return out, badRequestf("invalid companyData: %v", err)
		}
		out.Company.Name = middleware.SanitizeString(out.Company.Name)
		out.Company.Industry = middleware.SanitizeString(out.Company.Industry)
	}

	if raw := req.FormValue("selectedFilings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &out.Filings); err != nil {
			return out, badRequestf("invalid selectedFilings: %v", err)
		}
		for _, f := range out.Filings {
			if err := middleware.ValidateFiling(f); err != nil {
				return out, badRequest{msg: err.Error()}
			}
		}
	}

	for _, fh := range req.MultipartForm.File["uploadedFiles"] {
		f, err := fh.Open()
		if err != nil {
			return out, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return out, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		out.Uploads = append(out.Uploads, documents.Upload{
			Name:        middleware.SanitizeString(fh.Filename),
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}

// GET /api/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.analysis.List(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /api/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return domain.ErrNotFound
	}
	a, err := r.analysis.Get(req.Context(), domain.ID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, newAnalysisResponse(a))
}
