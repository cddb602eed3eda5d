// Package openai embeds chunk and question text with the OpenAI embeddings API
// or any server that speaks the same protocol.
package openai

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize bounds the inputs sent in one request. A long bank
	// statement can produce more chunks than the API accepts at once.
	DefaultBatchSize = 256

	fallbackDimensions = 1536
)

// Config configures the OpenAI embeddings client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions overrides the size known for Model. Only text-embedding-3-*
	// models can be asked for a smaller vector.
	Dimensions int

	BatchSize int
	RateLimit *ratelimit.Config
}

// EmbeddingService embeds text with the OpenAI embeddings API.
type EmbeddingService struct {
	api        *openaiapi.Client
	model      string
	dimensions int
	batchSize  int
}

// NewEmbeddingService creates a client. It fails when no API key is set.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	api, err := openaiapi.New(openaiapi.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set OPENAI_API_KEY or run 'bankdoc settings embedding')", err)
	}

	s := &EmbeddingService{
		api:        api,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.dimensions <= 0 {
		s.dimensions = domain.EmbeddingDimensions()[s.model]
	}
	if s.dimensions <= 0 {
		s.dimensions = fallbackDimensions
	}
	return s, nil
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch sends texts in requests of at most BatchSize inputs and returns
// the vectors in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for batch := range slices.Chunk(texts, s.batchSize) {
		vectors, err := s.embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := openaiapi.EmbeddingsRequest{Model: s.model, Input: texts}
	if strings.HasPrefix(s.model, "text-embedding-3-") {
		req.Dimensions = s.dimensions
	}
	resp, err := s.api.Embeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) || vectors[item.Index] != nil {
			return nil, fmt.Errorf("openai returned bad embedding index %d", item.Index)
		}
		v := make([]float32, len(item.Embedding))
		for i, f := range item.Embedding {
			v[i] = float32(f)
		}
		vectors[item.Index] = v
	}
	logger.Debug("OpenAI embedded %d inputs (%d tokens)", len(texts), resp.Usage.TotalTokens)
	return vectors, nil
}

// Dimensions returns the vector size requested from or known for the model.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks the key against GET /models without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Models(ctx)
}

// Close is a no-op; the HTTP client holds no resources.
func (s *EmbeddingService) Close() error { return nil }
