package driven

import "context"

// LLMService phrases an answer from retrieved excerpts. A nil or failing
// service is not fatal to a query.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string

	// Ping fails when the backend is down or has no usable model.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions left at their zero value use the backend's defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
