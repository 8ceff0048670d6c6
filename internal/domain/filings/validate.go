package filings

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	accessionPattern = regexp.MustCompile(`^\d{10}-\d{2}-\d{6}$`)
	documentPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)
)

// ValidateAccession checks accession numbers like 0000320193-24-000123.
func ValidateAccession(acc string) error {
	if !accessionPattern.MatchString(acc) {
		return fmt.Errorf("invalid accession number %q", acc)
	}
	return nil
}

// ValidateDocumentName accepts bare file names only.
func ValidateDocumentName(name string) error {
	if !documentPattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}

// Validate checks the identifiers an archive URL is built from: CIK,
// accession number and primary document.
func (f Filing) Validate() error {
	if _, err := NormalizeCIK(f.CIK); err != nil {
		return err
	}
	if err := ValidateAccession(f.AccessionNumber); err != nil {
		return err
	}
	return ValidateDocumentName(f.PrimaryDocument)
}
