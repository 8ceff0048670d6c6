package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrInvalidPrompt is returned before any network call for an empty prompt.
	ErrInvalidPrompt = errors.New("invalid prompt: must be a non-empty string")
	// ErrInvalidResponse means the completion had no usable message content.
	ErrInvalidResponse = errors.New("invalid response from completion api")
)

// User facing messages, one per error class.
const (
	MsgInvalidPrompt   = "Invalid prompt: Must be a non-empty string."
	MsgInvalidResponse = "Error: Received invalid response from OpenAI."
	MsgUnexpected      = "An unexpected error occurred. Please try again."
)

// APIError is an error reported by the upstream completion API.
type APIError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion api error (status %d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match rate limited responses.
func (e *APIError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.StatusCode == http.StatusTooManyRequests
}

// UserMessage maps a completion error to the string shown to end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalidPrompt):
		return MsgInvalidPrompt
	case errors.Is(err, ErrInvalidResponse):
		return MsgInvalidResponse
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "GPT API error: " + apiErr.Message
	}
	return MsgUnexpected
}
