// Package openai generates answers with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = openaiapi.DefaultBaseURL
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// systemPrompt frames every completion. The user prompt carries the context.
const systemPrompt = "You answer questions about Indian banking documents " +
	"(salary slips, bank statements, KYC, loan applications) using only the supplied context. " +
	"Quote amounts and identifiers exactly as written."

var errNoChoices = errors.New("openai: no response choices returned")

// LLMConfig configures the OpenAI chat client.
type LLMConfig struct {
	APIKey string

	// BaseURL can point at Azure OpenAI or any compatible server.
	BaseURL string

	Model     string
	Timeout   time.Duration
	RateLimit *ratelimit.Config
}

// LLMService generates answers with the OpenAI chat completions API.
type LLMService struct {
	api   *openaiapi.Client
	model string
}

// NewLLMService creates a client. It fails when no API key is set.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	api, err := openaiapi.New(openaiapi.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set OPENAI_API_KEY or run 'bankdoc settings llm')", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	return &LLMService{api: api, model: cfg.Model}, nil
}

// Generate sends prompt as the user turn under the fixed banking system prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	resp, err := s.api.ChatCompletion(ctx, openaiapi.ChatRequest{
		Model: s.model,
		Messages: []openaiapi.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	})
	if err != nil {
		return "", err
	}
	return firstChoice(resp)
}

func firstChoice(resp *openaiapi.ChatResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		logger.Debug("OpenAI answer truncated at max_tokens")
	}
	logger.Debug("OpenAI usage: %d prompt, %d completion tokens",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return choice.Message.Content, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string { return s.model }

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Models(ctx)
}

// Close is a no-op; the HTTP client holds no resources.
func (s *LLMService) Close() error { return nil }
