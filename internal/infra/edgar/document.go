package edgar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

// ErrUnsupportedDocument is returned for primary documents that are neither
// HTML nor plain text.
var ErrUnsupportedDocument = errors.New("unsupported filing document type")

var spaceRe = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)

// FilingText downloads the filing's primary document and returns its text.
func (c *Client) FilingText(ctx context.Context, f filings.Filing) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(f.PrimaryDocument))
	switch ext {
	case ".htm", ".html", ".xml", ".txt":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, ext)
	}
	cik, _ := filings.NormalizeCIK(f.CIK)
	f.CIK = cik
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	url := c.documentURL(f)
	resp, err := c.archive.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch filing %s: %w", f.AccessionNumber, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("edgar archive error %d for %s", resp.StatusCode(), f.AccessionNumber)
	}

	var text string
	if ext == ".txt" {
		text = collapse(string(resp.Body()))
	} else if text, err = htmlText(resp.Body()); err != nil {
		return "", err
	}

	c.logger.Debug("edgar filing text",
		zap.String("accession", f.AccessionNumber),
		zap.Int("bytes", len(resp.Body())),
		zap.Int("chars", len(text)),
	)
	return truncate(text, c.maxChars), nil
}

var blockSelector = "p, div, br, tr, li, table, h1, h2, h3, h4, h5, h6"

// htmlText converts a filing document to plain text, one line per block
// element. Inline XBRL headers are hidden with display:none and dropped.
func htmlText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse filing html: %w", err)
	}
	doc.Find("script, style, head, [style*='display:none'], [style*='display: none']").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return collapse(doc.Text()), nil
}

// collapse squeezes runs of spaces and drops blank lines.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
