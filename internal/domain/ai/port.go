package ai

import (
	"context"

	"github.com/bryanwahyu/cft-genai/internal/domain/company"
)

// Completer sends one prompt to a hosted language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer builds the analysis prompt for a company and document text and
// returns the model's completion.
type Analyzer interface {
	Analyze(ctx context.Context, info company.Info, documentText string) (string, error)
}
