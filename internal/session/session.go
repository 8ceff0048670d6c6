// Package session holds the state of one interactive analysis: the chosen
// company, its recent filings, the selected form types and uploads, and the
// outcome of the last request.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bryanwahyu/cft-genai/internal/client"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/logging"
)

// Messages shown to the user.
const (
	MsgNoCompany      = "No company selected for analysis."
	MsgNoSelection    = "No files or filings selected for analysis."
	MsgOnlyPDF        = "Only PDF files are allowed."
	MsgAnalyzeFailed  = "Failed to analyze the documents. Please try again."
	MsgNoResponse     = "No response received."
	MsgFetchFailed    = "Failed to fetch company data."
	MsgAlreadyRunning = "An analysis is already in progress."
)

// ErrBusy is returned when a request is made while another is outstanding.
var ErrBusy = errors.New("session busy")

// API is the part of the analysis API the session uses.
type API interface {
	RecentFilings(ctx context.Context, cik string, formTypes []string) (*filings.CompanyData, []filings.Filing, error)
	Analyze(ctx context.Context, info company.Info, selected []filings.Filing, files []documents.Upload) (*client.AnalyzeResponse, error)
}

// Session is safe for concurrent use; a second request while one is in
// flight fails with ErrBusy.
type Session struct {
	api    API
	logger *zap.Logger

	mu          sync.Mutex
	company     *company.Listing
	companyData *filings.CompanyData
	filings     []filings.Filing
	selected    []string
	uploads     []documents.Upload
	loading     bool
	err         string
	result      *client.AnalyzeResponse
}

func New(api API, logger *zap.Logger) *Session {
	return &Session{api: api, logger: logging.OrNop(logger)}
}

// State is a snapshot of the session.
type State struct {
	Company     *company.Listing
	CompanyData *filings.CompanyData
	Filings     []filings.Filing
	Selected    []string
	Uploads     []string
	Loading     bool
	Error       string
	Analysis    string
	Result      *client.AnalyzeResponse
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Company:     s.company,
		CompanyData: s.companyData,
		Filings:     append([]filings.Filing(nil), s.filings...),
		Selected:    append([]string(nil), s.selected...),
		Loading:     s.loading,
		Error:       s.err,
		Result:      s.result,
	}
	for _, u := range s.uploads {
		st.Uploads = append(st.Uploads, u.Name)
	}
	if s.result != nil {
		st.Analysis = s.result.AiAnalysisTextResponse
	}
	return st
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	s.loading = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// SelectCompany makes c the current company and loads its recent 10-K, 10-Q
// and 8-K filings.
func (s *Session) SelectCompany(ctx context.Context, c company.Listing) error {
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	s.mu.Lock()
	s.company = &c
	s.mu.Unlock()

	data, list, err := s.api.RecentFilings(ctx, c.CIK, filings.DefaultFormTypes)
	if err != nil {
		s.logger.Error("failed to fetch company data", zap.String("cik", c.CIK), zap.Error(err))
		s.setError(MsgFetchFailed)
		return err
	}

	s.mu.Lock()
	if s.company.Title == "" && data != nil {
		// selected by CIK alone
		s.company.Title = data.Name
	}
	s.companyData = data
	s.filings = list
	s.mu.Unlock()
	return nil
}

// Toggle adds formType to the selection, or removes it if present.
func (s *Session) Toggle(formType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ft := range s.selected {
		if ft == formType {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, formType)
}

// AddFiles appends the files declared as application/pdf and drops the rest.
// Any dropped file sets MsgOnlyPDF; otherwise the error is cleared. Content is
// sniffed again by the server.
func (s *Session) AddFiles(files ...documents.Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rejected := false
	for _, f := range files {
		if !f.DeclaredPDF() {
			rejected = true
			continue
		}
		s.uploads = append(s.uploads, f)
	}
	if rejected {
		s.err = MsgOnlyPDF
	} else {
		s.err = ""
	}
}

// RemoveFile drops the upload at index i; out of range indexes are ignored.
func (s *Session) RemoveFile(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.uploads) {
		return
	}
	s.uploads = append(s.uploads[:i:i], s.uploads[i+1:]...)
}

// Analyze submits the filings whose form type is selected together with the
// uploads. Validation failures and request errors are reported through the
// session error; the returned error is for callers that need to branch.
func (s *Session) Analyze(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.company == nil {
		s.err = MsgNoCompany
		s.mu.Unlock()
		return errors.New(MsgNoCompany)
	}
	if len(s.selected) == 0 && len(s.uploads) == 0 {
		s.err = MsgNoSelection
		s.mu.Unlock()
		return errors.New(MsgNoSelection)
	}

	info := company.Info{Name: s.company.Title}
	if s.companyData != nil {
		info.Industry = s.companyData.SICDescription
	}
	var chosen []filings.Filing
	for _, f := range s.filings {
		if contains(s.selected, f.FormType) {
			chosen = append(chosen, f)
		}
	}
	uploads := append([]documents.Upload(nil), s.uploads...)
	s.loading = true
	s.err = ""
	s.result = nil
	s.mu.Unlock()
	defer s.end()

	resp, err := s.api.Analyze(ctx, info, chosen, uploads)
	if err != nil {
		s.logger.Error("failed to analyze documents", zap.Error(err))
		s.setError(MsgAnalyzeFailed)
		return err
	}
	if strings.TrimSpace(resp.AiAnalysisTextResponse) == "" {
		resp.AiAnalysisTextResponse = MsgNoResponse
	}

	s.mu.Lock()
	s.result = resp
	s.mu.Unlock()
	return nil
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
