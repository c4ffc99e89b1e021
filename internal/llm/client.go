// Package llm abstracts the generation backends the pipeline invokes.
package llm

import (
	"context"
	"fmt"
)

// Client is the narrow contract the evaluation pipeline depends on.
// Generate is the only capability the pipeline requires; CountTokens is
// best-effort and used for diagnostics only.
type Client interface {
	// Generate sends a single prompt and returns the raw response text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// CountTokens returns the token count for the given text. Backends
	// without a counting endpoint return an error; callers must degrade,
	// never abort.
	CountTokens(ctx context.Context, text string) (int, error)
}

// GenerateRequest carries one rendered prompt and its generation controls.
// When MIME is set the backend is instructed to constrain its response to
// that MIME type; the returned text is not validated here.
type GenerateRequest struct {
	Prompt      string
	System      string
	MIME        string
	Temperature float64
	MaxTokens   int
}

// GenerationError wraps a failed backend call.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
