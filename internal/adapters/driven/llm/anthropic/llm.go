// Package anthropic generates answers with the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens is sent when the caller sets none; the API requires it.
	DefaultMaxTokens = 1024

	apiVersion = "2023-06-01"

	// statusOverloaded is retried like a 429.
	statusOverloaded = 529
)

const systemPrompt = "You answer questions about Indian banking documents using only the supplied context. " +
	"Quote amounts and identifiers exactly as written."

var errNoAPIKey = errors.New("anthropic: API key is required (set ANTHROPIC_API_KEY or run 'bankdoc settings llm')")

// Config configures the Anthropic messages client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// RateLimit defaults to ratelimit.Anthropic.
	RateLimit *ratelimit.Config
}

// LLMService generates answers with the Anthropic messages API.
type LLMService struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *ratelimit.Limiter
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model         string    `json:"model"`
	System        string    `json:"system,omitempty"`
	Messages      []message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type reply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// APIError is a non-200 reply; Type is the API's error type when it sent one.
type APIError struct {
	Status  int
	Type    string
	Message string
}

// Error formats the status or error type with the API message.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("anthropic error (%s): %s", e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic error (status %d): %s", e.Status, e.Message)
}

// NewLLMService creates a client. It fails when no API key is set.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errNoAPIKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := ratelimit.Anthropic
	if cfg.RateLimit != nil {
		limit = *cfg.RateLimit
	}
	return &LLMService{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/"),
		apiKey:  cfg.APIKey,
		model:   cmp.Or(cfg.Model, DefaultModel),
		limiter: ratelimit.New(limit),
	}, nil
}

// Generate answers prompt and joins the text blocks of the reply.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := request{
		Model:         s.model,
		System:        systemPrompt,
		Messages:      []message{{Role: "user", Content: prompt}},
		MaxTokens:     cmp.Or(max(opts.MaxTokens, 0), DefaultMaxTokens),
		Temperature:   opts.Temperature,
		StopSequences: opts.StopWords,
	}

	ctx, span := tracing.StartSpan(ctx, "llm.anthropic",
		attribute.String("model", s.model),
		attribute.Int("max_tokens", req.MaxTokens),
	)
	defer span.End()

	var resp reply
	if err := s.call(ctx, req, &resp); err != nil {
		tracing.RecordError(ctx, err)
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content returned (stop reason %q)", resp.StopReason)
	}
	logger.Debug("Anthropic usage: %d input, %d output tokens", resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return text.String(), nil
}

// call posts to /v1/messages, sending once more after a 429 or 529.
func (s *LLMService) call(ctx context.Context, body request, out *reply) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("anthropic: marshal request: %w", err)
	}

	var (
		status int
		raw    []byte
	)
	for attempt := range 2 {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("anthropic: rate limit wait: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("anthropic: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		if status, raw, err = s.send(req); err != nil {
			return err
		}
		if status != http.StatusTooManyRequests && status != statusOverloaded {
			break
		}
		logger.Warn("Anthropic request throttled with status %d (attempt %d)", status, attempt+1)
	}

	if status != http.StatusOK {
		return apiError(status, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("anthropic: decode response: %w", err)
	}
	return nil
}

func (s *LLMService) send(req *http.Request) (int, []byte, error) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("anthropic: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == statusOverloaded {
		s.limiter.Backoff(ratelimit.RetryAfter(resp.Header))
	} else {
		s.limiter.Observe(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("anthropic: read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(status int, body []byte) *APIError {
	var envelope struct {
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		return &APIError{Status: status, Type: envelope.Error.Type, Message: envelope.Error.Message}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string { return s.model }

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: create request: %w", err)
	}
	status, body, err := s.send(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, body)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no resources.
func (s *LLMService) Close() error { return nil }
