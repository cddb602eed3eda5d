// Package ollama embeds text with a local Ollama model such as all-minilm.
package ollama

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = ollamaapi.DefaultBaseURL
	DefaultModel   = "all-minilm"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions is looked up from known models when zero, and otherwise
	// learned from the first response.
	Dimensions int
}

// EmbeddingService sends every batch in one /api/embed call.
type EmbeddingService struct {
	api        *ollamaapi.Client
	model      string
	dimensions atomic.Int64
}

// NewEmbeddingService applies defaults; it does not contact the server.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	s := &EmbeddingService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
	s.dimensions.Store(int64(cfg.Dimensions))
	return s
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request and learns the dimension from the first reply.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.api.Embed(ctx, s.model, texts)
	if err != nil {
		return nil, err
	}
	s.dimensions.CompareAndSwap(0, int64(len(vectors[0])))
	return vectors, nil
}

// Dimensions returns the vector size, or 0 before the first embedding.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dimensions.Load())
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping only checks the server answers; a missing model surfaces on first embed.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.api.Models(ctx); err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no resources.
func (s *EmbeddingService) Close() error {
	return nil
}
