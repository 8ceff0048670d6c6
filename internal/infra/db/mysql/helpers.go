package mysql

import (
	"encoding/json"
	"strings"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// dashOrEmpty reverses stringOrDash on read
func dashOrEmpty(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// jsonOrEmpty marshals v, storing "[]" for nil slices
func jsonOrEmpty(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}
