package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
	"github.com/bryanwahyu/cft-genai/internal/report"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2563EB")).
			Padding(0, 1).
			MarginBottom(1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	boldStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	reportStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(1, 2).
			Width(100)
)

func renderSpans(spans []report.Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Bold {
			b.WriteString(boldStyle.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// RenderReport draws report blocks: headings, paragraphs and one bullet
// per bullets block item.
func RenderReport(blocks []report.Block) string {
	lines := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		switch blk.Kind {
		case report.BlockHeading:
			lines = append(lines, headingStyle.Render(report.PlainText(blk.Spans)))
		case report.BlockBullets:
			for _, item := range blk.Items {
				lines = append(lines, "  • "+renderSpans(item))
			}
		default:
			lines = append(lines, renderSpans(blk.Spans))
		}
	}
	return reportStyle.Render(strings.Join(lines, "\n\n"))
}

// RenderCompanies lists search results, one per line.
func RenderCompanies(list []company.Listing) string {
	if len(list) == 0 {
		return mutedStyle.Render("No companies found.")
	}
	var b strings.Builder
	for _, c := range list {
		fmt.Fprintf(&b, "%-8s %-10s %s\n", c.Ticker, c.CIK, c.Title)
	}
	return b.String()
}

// RenderFilings shows a company profile and its recent filings.
func RenderFilings(data *filings.CompanyData, list []filings.Filing) string {
	var b strings.Builder
	if data != nil {
		b.WriteString(titleStyle.Render(data.Name))
		b.WriteString("\n")
		if data.SICDescription != "" {
			b.WriteString(mutedStyle.Render(data.SICDescription))
			b.WriteString("\n")
		}
	}
	if len(list) == 0 {
		b.WriteString(mutedStyle.Render("No recent filings."))
		b.WriteString("\n")
	}
	for _, f := range list {
		fmt.Fprintf(&b, "%-6s %-12s %s\n", f.FormType, f.FilingDate, f.AccessionNumber)
	}
	return b.String()
}
