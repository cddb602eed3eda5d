// Package openaiapi speaks the OpenAI REST protocol for the embedding and
// LLM adapters. Any server exposing /embeddings, /chat/completions and
// /models with bearer auth works.
package openaiapi

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
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 2048

// ErrNoAPIKey is returned by New when Config.APIKey is empty.
var ErrNoAPIKey = errors.New("openai: API key is required")

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// RateLimit defaults to ratelimit.OpenAI.
	RateLimit *ratelimit.Config
}

// Client shares one token bucket between every call it makes, so the
// embedding and chat traffic of one adapter cannot exceed the quota.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
}

// New creates a client. It fails when no API key is set.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	limit := ratelimit.OpenAI
	if cfg.RateLimit != nil {
		limit = *cfg.RateLimit
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/"),
		apiKey:  cfg.APIKey,
		limiter: ratelimit.New(limit),
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-200 reply. Message comes from the error envelope when
// the server sent one, otherwise from the raw body.
type APIError struct {
	Status  int
	Type    string
	Message string
}

// Error formats the status with the API message.
func (e *APIError) Error() string {
	return fmt.Sprintf("openai error (status %d): %s", e.Status, e.Message)
}

// Usage reports the tokens a request consumed.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EmbeddingsRequest is the body of POST /embeddings.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`

	// Dimensions is honoured by text-embedding-3-* models only.
	Dimensions int `json:"dimensions,omitempty"`
}

// Embedding is one vector of an embeddings response.
type Embedding struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingsResponse is the reply to POST /embeddings.
type EmbeddingsResponse struct {
	Data  []Embedding `json:"data"`
	Usage Usage       `json:"usage"`
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// Choice is one completion of a chat response.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse is the reply to POST /chat/completions.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Embeddings calls POST /embeddings. Data is returned in server order;
// callers place vectors by Index.
func (c *Client) Embeddings(ctx context.Context, req EmbeddingsRequest) (*EmbeddingsResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "openai.embeddings",
		attribute.String("model", req.Model),
		attribute.Int("inputs", len(req.Input)),
	)
	defer span.End()

	var resp EmbeddingsResponse
	if err := c.call(ctx, "/embeddings", req, &resp); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return &resp, nil
}

// ChatCompletion calls POST /chat/completions.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "openai.chat",
		attribute.String("model", req.Model),
		attribute.Int("max_tokens", req.MaxTokens),
	)
	defer span.End()

	var resp ChatResponse
	if err := c.call(ctx, "/chat/completions", req, &resp); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return &resp, nil
}

// Models checks the key against GET /models without spending tokens.
func (c *Client) Models(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	status, body, err := c.send(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, body)
	}
	return nil
}

// call posts body to path and decodes the reply into out. A 429 starts the
// limiter's backoff window and the request is sent once more after it.
func (c *Client) call(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	var (
		status int
		raw    []byte
	)
	for attempt := range 2 {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("openai: rate limit wait: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("openai: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		if status, raw, err = c.send(req); err != nil {
			return err
		}
		if status != http.StatusTooManyRequests {
			break
		}
		logger.Warn("OpenAI %s rate limited (attempt %d)", path, attempt+1)
	}

	if status != http.StatusOK {
		return apiError(status, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (int, []byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("openai: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	c.limiter.Observe(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("openai: read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(status int, body []byte) *APIError {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		return &APIError{Status: status, Type: envelope.Error.Type, Message: envelope.Error.Message}
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
}
