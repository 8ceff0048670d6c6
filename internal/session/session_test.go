package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/cft-genai/internal/client"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

type fakeAPI struct {
	recentErr  error
	analyzeErr error
	text       string
	block      chan struct{}

	formTypes []string
	info      company.Info
	selected  []filings.Filing
	files     []documents.Upload
	analyzes  int
}

func (f *fakeAPI) RecentFilings(_ context.Context, cik string, formTypes []string) (*filings.CompanyData, []filings.Filing, error) {
	f.formTypes = formTypes
	if f.recentErr != nil {
		return nil, nil, f.recentErr
	}
	return &filings.CompanyData{CIK: cik, Name: "ACME CORP", SICDescription: "Industrials"},
		[]filings.Filing{
			{FormType: "10-K", AccessionNumber: "0000000001-24-000001"},
			{FormType: "10-Q", AccessionNumber: "0000000001-24-000002"},
			{FormType: "8-K", AccessionNumber: "0000000001-24-000003"},
		}, nil
}

func (f *fakeAPI) Analyze(_ context.Context, info company.Info, selected []filings.Filing, files []documents.Upload) (*client.AnalyzeResponse, error) {
	f.analyzes++
	f.info, f.selected, f.files = info, selected, files
	if f.block != nil {
		<-f.block
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &client.AnalyzeResponse{ID: "a1", AiAnalysisTextResponse: f.text}, nil
}

var acme = company.Listing{CIK: "1", Ticker: "ACME", Title: "Acme Corp"}

func pdf(name string) documents.Upload {
	return documents.Upload{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
}

func TestSelectCompanyLoadsFilings(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, nil)

	require.NoError(t, s.SelectCompany(context.Background(), acme))
	st := s.State()
	assert.Equal(t, "Acme Corp", st.Company.Title)
	assert.Equal(t, "Industrials", st.CompanyData.SICDescription)
	assert.Len(t, st.Filings, 3)
	assert.Equal(t, []string{"10-K", "10-Q", "8-K"}, api.formTypes)
	assert.False(t, st.Loading)
}

func TestSelectCompanyFailure(t *testing.T) {
	s := New(&fakeAPI{recentErr: errors.New("boom")}, nil)
	require.Error(t, s.SelectCompany(context.Background(), acme))
	assert.Equal(t, MsgFetchFailed, s.State().Error)
	assert.False(t, s.State().Loading)
}

func TestToggle(t *testing.T) {
	s := New(&fakeAPI{}, nil)
	s.Toggle("10-K")
	s.Toggle("8-K")
	s.Toggle("10-K")
	assert.Equal(t, []string{"8-K"}, s.State().Selected)
}

func TestAddAndRemoveFiles(t *testing.T) {
	s := New(&fakeAPI{}, nil)

	s.AddFiles(pdf("a.pdf"), documents.Upload{Name: "b.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}, pdf("c.pdf"))
	st := s.State()
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, st.Uploads)
	assert.Equal(t, MsgOnlyPDF, st.Error)

	s.AddFiles(pdf("d.pdf"))
	assert.Empty(t, s.State().Error)

	s.RemoveFile(1)
	s.RemoveFile(10)
	assert.Equal(t, []string{"a.pdf", "d.pdf"}, s.State().Uploads)
}

func TestAddFilesChecksDeclaredType(t *testing.T) {
	s := New(&fakeAPI{}, nil)

	s.AddFiles(documents.Upload{Name: "notes.txt", ContentType: "text/plain", Data: []byte("%PDF-1.4 body")})
	st := s.State()
	assert.Empty(t, st.Uploads)
	assert.Equal(t, MsgOnlyPDF, st.Error)

	s.AddFiles(documents.Upload{Name: "scan.pdf", ContentType: "application/pdf; name=scan.pdf", Data: []byte("%PDF-1.7")})
	st = s.State()
	assert.Equal(t, []string{"scan.pdf"}, st.Uploads)
	assert.Empty(t, st.Error)
}

func TestAnalyzeValidationWithoutNetwork(t *testing.T) {
	api := &fakeAPI{text: "ok"}
	s := New(api, nil)

	require.Error(t, s.Analyze(context.Background()))
	assert.Equal(t, MsgNoCompany, s.State().Error)

	require.NoError(t, s.SelectCompany(context.Background(), acme))
	require.Error(t, s.Analyze(context.Background()))
	assert.Equal(t, MsgNoSelection, s.State().Error)
	assert.Zero(t, api.analyzes)
}

func TestAnalyzeSubmitsSelectedFilingsAndUploads(t *testing.T) {
	api := &fakeAPI{text: "**Bull** case"}
	s := New(api, nil)
	ctx := context.Background()
	require.NoError(t, s.SelectCompany(ctx, acme))
	s.Toggle("10-Q")
	s.Toggle("8-K")
	s.AddFiles(pdf("deck.pdf"))

	require.NoError(t, s.Analyze(ctx))
	assert.Equal(t, company.Info{Name: "Acme Corp", Industry: "Industrials"}, api.info)
	require.Len(t, api.selected, 2)
	assert.Equal(t, "10-Q", api.selected[0].FormType)
	assert.Equal(t, "8-K", api.selected[1].FormType)
	require.Len(t, api.files, 1)

	st := s.State()
	assert.Equal(t, "**Bull** case", st.Analysis)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)
}

func TestAnalyzeEmptyResult(t *testing.T) {
	s := New(&fakeAPI{text: "  "}, nil)
	require.NoError(t, s.SelectCompany(context.Background(), acme))
	s.AddFiles(pdf("a.pdf"))

	require.NoError(t, s.Analyze(context.Background()))
	assert.Equal(t, MsgNoResponse, s.State().Analysis)
}

func TestAnalyzeFailure(t *testing.T) {
	s := New(&fakeAPI{analyzeErr: &client.Error{StatusCode: 502}}, nil)
	require.NoError(t, s.SelectCompany(context.Background(), acme))
	s.Toggle("10-K")

	require.Error(t, s.Analyze(context.Background()))
	st := s.State()
	assert.Equal(t, MsgAnalyzeFailed, st.Error)
	assert.Empty(t, st.Analysis)
	assert.False(t, st.Loading)
}

func TestAnalyzeRejectsDoubleSubmit(t *testing.T) {
	api := &fakeAPI{text: "ok", block: make(chan struct{})}
	s := New(api, nil)
	require.NoError(t, s.SelectCompany(context.Background(), acme))
	s.Toggle("10-K")

	done := make(chan error, 1)
	go func() { done <- s.Analyze(context.Background()) }()
	require.Eventually(t, func() bool { return s.State().Loading }, time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Analyze(context.Background()), ErrBusy)
	assert.ErrorIs(t, s.SelectCompany(context.Background(), acme), ErrBusy)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.analyzes)
}

func TestSelectCompanyByCIKTakesProfileName(t *testing.T) {
	s := New(&fakeAPI{}, nil)
	require.NoError(t, s.SelectCompany(context.Background(), company.Listing{CIK: "1"}))
	assert.Equal(t, "ACME CORP", s.State().Company.Title)
}
