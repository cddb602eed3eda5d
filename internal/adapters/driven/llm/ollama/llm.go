// Package ollama answers questions with a model served by a local Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = ollamaapi.DefaultBaseURL
	DefaultLLMModel   = "llama3:8b"
	DefaultLLMTimeout = 120 * time.Second
)

// ErrNoModels is returned by Ping when nothing has been pulled.
var ErrNoModels = errors.New("ollama: no models installed")

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	BaseURL string
	Model   string

	// Timeout covers the whole completion; CPU-only hosts can be slow.
	Timeout time.Duration
}

// LLMService calls /api/generate without streaming.
type LLMService struct {
	api   *ollamaapi.Client
	model string
}

// NewLLMService applies defaults; it does not contact the server.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// Generate returns the completion for prompt. Sampling options are sent
// only when the caller sets one.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := ollamaapi.GenerateRequest{Model: s.model, Prompt: prompt}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(opts.StopWords) > 0 {
		req.Options = &ollamaapi.Options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		}
	}

	resp, err := s.api.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	logger.Debug("Ollama %s: %d prompt tokens, %d generated (%s)",
		s.model, resp.PromptEvalCount, resp.EvalCount, resp.DoneReason)
	return resp.Response, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping succeeds when any model is installed. A missing configured model is
// only warned about: Generate will then fail, and callers already treat
// that like any other generation failure.
func (s *LLMService) Ping(ctx context.Context) error {
	models, err := s.api.Models(ctx)
	if err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	if len(models) == 0 {
		return ErrNoModels
	}

	want := ollamaapi.BaseName(s.model)
	for _, m := range models {
		if ollamaapi.BaseName(m) == want {
			return nil
		}
	}
	logger.Warn("ollama model %s not installed; %d other models available", s.model, len(models))
	return nil
}

// Close is a no-op; the HTTP client holds no resources.
func (s *LLMService) Close() error {
	return nil
}
