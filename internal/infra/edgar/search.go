package edgar

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
)

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Search matches the query against the ticker directory: an exact CIK or
// ticker first, then ticker prefixes, then title substrings.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]company.Listing, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return []company.Listing{}, nil
	}
	all, err := c.loadTickers(ctx)
	if err != nil {
		return nil, err
	}

	var exact, prefix, title []company.Listing
	qCIK := strings.TrimLeft(q, "0")
	for _, l := range all {
		ticker := strings.ToUpper(l.Ticker)
		switch {
		case ticker == q || l.CIK == qCIK:
			exact = append(exact, l)
		case strings.HasPrefix(ticker, q):
			prefix = append(prefix, l)
		case strings.Contains(strings.ToUpper(l.Title), q):
			title = append(title, l)
		}
	}
	out := append(append(exact, prefix...), title...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []company.Listing{}
	}
	return out, nil
}

// loadTickers fetches company_tickers.json once a day. The file is an object
// keyed by rank ("0", "1", ...), which is kept as the result order.
func (c *Client) loadTickers(ctx context.Context) ([]company.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickers != nil && time.Since(c.tickersAt) < tickersTTL {
		return c.tickers, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var raw map[string]tickerEntry
	resp, err := c.archive.R().
		SetContext(ctx).
		SetResult(&raw).
		Get("/files/company_tickers.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company tickers: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("edgar tickers error %d", resp.StatusCode())
	}

	type ranked struct {
		rank int
		l    company.Listing
	}
	rows := make([]ranked, 0, len(raw))
	for k, e := range raw {
		rank, err := strconv.Atoi(k)
		if err != nil {
			rank = len(raw)
		}
		rows = append(rows, ranked{rank: rank, l: company.Listing{
			CIK:    strconv.FormatInt(e.CIK, 10),
			Ticker: e.Ticker,
			Title:  e.Title,
		}})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].rank < rows[j].rank })

	listings := make([]company.Listing, len(rows))
	for i, r := range rows {
		listings[i] = r.l
	}
	c.tickers = listings
	c.tickersAt = time.Now()
	return listings, nil
}
