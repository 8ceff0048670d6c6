package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/cft-genai/internal/domain/filings"
)

// Input validation and sanitization utilities

var (
	formTypePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9/-]{0,15}$`)
	analysisPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// ValidateCIK checks the CIK format and returns it without leading zeros
func ValidateCIK(cik string) (string, error) {
	return filings.NormalizeCIK(cik)
}

// ValidateFormType validates form types like 10-K, 8-K or 10-K/A
func ValidateFormType(ft string) error {
	if !formTypePattern.MatchString(strings.ToUpper(strings.TrimSpace(ft))) {
		return fmt.Errorf("invalid form type %q", ft)
	}
	return nil
}

// ValidateFiling checks every identifier the server uses to fetch a filing
func ValidateFiling(f filings.Filing) error {
	if _, err := ValidateCIK(f.CIK); err != nil {
		return err
	}
	if err := ValidateFormType(f.FormType); err != nil {
		return err
	}
	return f.Validate()
}

// ValidateAnalysisID validates analysis ID format (uuid)
func ValidateAnalysisID(id string) error {
	if !analysisPattern.MatchString(id) {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
