// Package edgar is a thin adapter over the SEC EDGAR public endpoints: the
// company ticker directory, the submissions API and the filing archive.
package edgar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/logging"
)

const (
	DefaultDataURL    = "https://data.sec.gov"
	DefaultArchiveURL = "https://www.sec.gov"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 10 // requests per second, the SEC fair access ceiling
	tickersTTL        = 24 * time.Hour
)

// Client implements filings.Source and filings.DocumentSource.
type Client struct {
	data     *resty.Client
	archive  *resty.Client
	limiter  *rate.Limiter
	maxChars int
	logger   *zap.Logger

	mu        sync.Mutex
	tickers   []company.Listing
	tickersAt time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithDataURL sets the submissions API base URL
func WithDataURL(u string) ClientOption {
	return func(c *Client) { c.data.SetBaseURL(strings.TrimRight(u, "/")) }
}

// WithArchiveURL sets the archive and ticker directory base URL
func WithArchiveURL(u string) ClientOption {
	return func(c *Client) { c.archive.SetBaseURL(strings.TrimRight(u, "/")) }
}

// WithRateLimit sets the shared requests-per-second limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.data.SetTimeout(timeout)
			c.archive.SetTimeout(timeout)
		}
	}
}

// WithMaxChars caps the text returned for one filing; 0 disables the cap
func WithMaxChars(n int) ClientOption {
	return func(c *Client) { c.maxChars = n }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// NewClient creates an EDGAR client. The SEC rejects requests without a
// descriptive User-Agent naming a contact.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	newResty := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(DefaultTimeout).
			SetHeader("User-Agent", userAgent)
	}
	c := &Client{
		data:    newResty(DefaultDataURL),
		archive: newResty(DefaultArchiveURL),
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// submissionsResponse is the subset of /submissions/CIK##########.json we use.
// The recent filings block is column oriented: index i of every slice
// describes the same filing, newest first.
type submissionsResponse struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sicDescription"`
	Tickers        []string `json:"tickers"`
	Exchanges      []string `json:"exchanges"`
	FiscalYearEnd  string   `json:"fiscalYearEnd"`
	Filings        struct {
		Recent struct {
			AccessionNumber       []string `json:"accessionNumber"`
			FilingDate            []string `json:"filingDate"`
			ReportDate            []string `json:"reportDate"`
			Form                  []string `json:"form"`
			PrimaryDocument       []string `json:"primaryDocument"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// Recent returns the company profile and the most recent filing of each
// requested form type, in the order the form types were given. Form types
// with no filing are skipped.
func (c *Client) Recent(ctx context.Context, cik string, formTypes []string) (*filings.CompanyData, []filings.Filing, error) {
	norm, err := filings.NormalizeCIK(cik)
	if err != nil {
		return nil, nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}

	var sub submissionsResponse
	resp, err := c.data.R().
		SetContext(ctx).
		SetResult(&sub).
		Get(fmt.Sprintf("/submissions/CIK%s.json", filings.PadCIK(norm)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch submissions for CIK %s: %w", norm, err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil, fmt.Errorf("%w: no submissions for %s", filings.ErrInvalidCIK, norm)
	}
	if resp.IsError() {
		return nil, nil, fmt.Errorf("edgar submissions error %d", resp.StatusCode())
	}

	data := &filings.CompanyData{
		CIK:            norm,
		Name:           sub.Name,
		SIC:            sub.SIC,
		SICDescription: sub.SICDescription,
		Tickers:        sub.Tickers,
		Exchanges:      sub.Exchanges,
		FiscalYearEnd:  sub.FiscalYearEnd,
	}

	recent := sub.Filings.Recent
	latest := make(map[string]filings.Filing)
	for i, form := range recent.Form {
		if _, seen := latest[form]; seen {
			continue
		}
		f := filings.Filing{
			CIK:             norm,
			FormType:        form,
			AccessionNumber: at(recent.AccessionNumber, i),
			FilingDate:      at(recent.FilingDate, i),
			ReportDate:      at(recent.ReportDate, i),
			PrimaryDocument: at(recent.PrimaryDocument, i),
			Description:     at(recent.PrimaryDocDescription, i),
		}
		if f.AccessionNumber == "" || f.PrimaryDocument == "" {
			continue
		}
		f.URL = c.documentURL(f)
		latest[form] = f
	}

	out := make([]filings.Filing, 0, len(formTypes))
	for _, ft := range filings.NormalizeFormTypes(formTypes) {
		if f, ok := latest[ft]; ok {
			out = append(out, f)
		}
	}
	c.logger.Debug("edgar recent filings",
		zap.String("cik", norm),
		zap.Int("filings", len(out)),
	)
	return data, out, nil
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// documentURL is built from the filing identifiers only; a client supplied
// URL is never fetched.
func (c *Client) documentURL(f filings.Filing) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
		c.archive.BaseURL,
		f.CIK,
		strings.ReplaceAll(f.AccessionNumber, "-", ""),
		f.PrimaryDocument,
	)
}
