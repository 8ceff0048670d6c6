package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

// PromptForQuery asks for a ticker, CIK or company name
func PromptForQuery() (string, error) {
	var q string
	prompt := &survey.Input{
		Message: "Search for a company (ticker, CIK or name):",
		Help:    "e.g. AAPL, 320193 or Apple",
	}
	err := survey.AskOne(prompt, &q, survey.WithValidator(func(val interface{}) error {
		if strings.TrimSpace(val.(string)) == "" {
			return fmt.Errorf("query cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(q), nil
}

// PromptForCompany lets the user pick one of the search results
func PromptForCompany(list []company.Listing) (company.Listing, error) {
	options := make([]string, len(list))
	for i, c := range list {
		options[i] = fmt.Sprintf("%s - %s (CIK %s)", c.Ticker, c.Title, c.CIK)
	}
	var idx int
	prompt := &survey.Select{
		Message: "Select a company:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &idx); err != nil {
		return company.Listing{}, err
	}
	return list[idx], nil
}

// PromptForFormTypes asks which of the available filings to analyze
func PromptForFormTypes(list []filings.Filing) ([]string, error) {
	options := make([]string, 0, len(list))
	for _, f := range list {
		options = append(options, f.FormType)
	}
	if len(options) == 0 {
		return nil, nil
	}
	var chosen []string
	prompt := &survey.MultiSelect{
		Message: "Select filings to analyze:",
		Options: options,
		Default: options[:1],
	}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return nil, err
	}
	return chosen, nil
}

// PromptForFiles asks for PDF paths, comma separated
func PromptForFiles() ([]string, error) {
	var raw string
	prompt := &survey.Input{
		Message: "PDF files to include (comma separated, empty for none):",
	}
	if err := survey.AskOne(prompt, &raw); err != nil {
		return nil, err
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
