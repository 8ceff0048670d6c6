// Package client is the HTTP client for the analysis API, used by the CLI
// and the session controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/report"
)

const (
	DefaultBaseURL = "http://localhost:4000"
	// one completion can take minutes
	DefaultTimeout = 5 * time.Minute
)

// Client talks to the analysis API
type Client struct {
	http *resty.Client
}

// Option configures the client
type Option func(*Client)

// WithAPIKey sends key as a bearer token
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.http.SetAuthToken(key)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a non-2xx API response
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		e := &Error{StatusCode: resp.StatusCode()}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			e.Message = body.Error
		}
		return e
	}
	return nil
}

// SearchCompanies finds companies by ticker, CIK or name
func (c *Client) SearchCompanies(ctx context.Context, query string, limit int) ([]company.Listing, error) {
	var out struct {
		Companies []company.Listing `json:"companies"`
	}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&out).
		SetError(&errorBody{})
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if err := checkResponse(req.Get("/api/companies")); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

// RecentFilings returns the company profile and its latest filing per form type
func (c *Client) RecentFilings(ctx context.Context, cik string, formTypes []string) (*filings.CompanyData, []filings.Filing, error) {
	var out struct {
		CompanyData *filings.CompanyData `json:"companyData"`
		Filings     []filings.Filing     `json:"filings"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("CIK", cik).
		SetQueryParam("formTypes", strings.Join(formTypes, ",")).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/api/filings")
	if err := checkResponse(resp, err); err != nil {
		return nil, nil, err
	}
	return out.CompanyData, out.Filings, nil
}

// AnalyzeResponse is the body of a successful analysis
type AnalyzeResponse struct {
	ID                     string         `json:"id"`
	AiAnalysisTextResponse string         `json:"AiAnalysisTextResponse"`
	Report                 []report.Block `json:"report"`
}

// Analyze submits the selection as multipart/form-data
func (c *Client) Analyze(ctx context.Context, info company.Info, selected []filings.Filing, files []documents.Upload) (*AnalyzeResponse, error) {
	companyJSON, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode companyData: %w", err)
	}
	form := map[string]string{"companyData": string(companyJSON)}
	if len(selected) > 0 {
		filingsJSON, err := json.Marshal(selected)
		if err != nil {
			return nil, fmt.Errorf("encode selectedFilings: %w", err)
		}
		form["selectedFilings"] = string(filingsJSON)
	}

	fields := make([]*resty.MultipartField, 0, len(files))
	for _, f := range files {
		ct := f.ContentType
		if ct == "" {
			ct = documents.ContentTypePDF
		}
		fields = append(fields, &resty.MultipartField{
			Param:       "uploadedFiles",
			FileName:    f.Name,
			ContentType: ct,
			Reader:      bytes.NewReader(f.Data),
		})
	}

	var out AnalyzeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		SetMultipartFields(fields...).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/api/analyze")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}
