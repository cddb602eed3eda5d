// Package ollamaapi is a minimal client for the local Ollama server, shared
// by the Ollama embedding and LLM adapters.
package ollamaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

// DefaultBaseURL is where `ollama serve` listens.
const DefaultBaseURL = domain.DefaultOllamaURL

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 2048

// Client talks to one Ollama server.
type Client struct {
	http    *http.Client
	baseURL string
}

// New returns a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EmbedRequest is the body of POST /api/embed.
type EmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbedResponse is the reply to POST /api/embed.
type EmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

// Options are the sampling parameters Ollama accepts per request.
type Options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// GenerateResponse is the non-streamed reply to POST /api/generate.
type GenerateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, model string, input []string) ([][]float32, error) {
	ctx, span := tracing.StartSpan(ctx, "ollama.embed",
		attribute.String("model", model),
		attribute.Int("inputs", len(input)),
	)
	defer span.End()

	var resp EmbedResponse
	if err := c.post(ctx, "/api/embed", EmbedRequest{Model: model, Input: input}, &resp); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", resp.Error)
	}
	if len(resp.Embeddings) != len(input) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(input))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		v := make([]float32, len(e))
		for j, f := range e {
			v[j] = float32(f)
		}
		out[i] = v
	}
	return out, nil
}

// Generate runs a single non-streamed completion.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "ollama.generate", attribute.String("model", req.Model))
	defer span.End()

	req.Stream = false
	var resp GenerateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", resp.Error)
	}
	return &resp, nil
}

// Models lists the names of installed models via GET /api/tags.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	var tags tagsResponse
	if err := c.do(req, &tags); err != nil {
		return nil, err
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ollama: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends req and decodes a 200 reply into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}

// BaseName strips the tag from a model reference ("llama3:8b" -> "llama3").
func BaseName(model string) string {
	name, _, _ := strings.Cut(model, ":")
	return name
}
