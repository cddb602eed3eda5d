package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

// EmbeddingFactory builds the embedding provider on first use.
type EmbeddingFactory func(ctx context.Context) (driven.EmbeddingService, error)

// LLMFactory builds the generative backend on first use.
type LLMFactory func(ctx context.Context) (driven.LLMService, error)

// lazy holds a value built on first successful use.
// Failed builds are not cached so a later call can retry.
type lazy[T any] struct {
	mu    sync.Mutex
	ready atomic.Bool
	value T
	build func(ctx context.Context) (T, error)
}

func (l *lazy[T]) get(ctx context.Context) (T, error) {
	if l.ready.Load() {
		return l.value, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready.Load() {
		return l.value, nil
	}

	v, err := l.build(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.ready.Store(true)
	return v, nil
}

// peek returns the value if it has been built.
func (l *lazy[T]) peek() (T, bool) {
	if !l.ready.Load() {
		var zero T
		return zero, false
	}
	return l.value, true
}

// ProviderRegistry owns the embedding provider and generative backend.
// Each is created on first use and then shared by every caller. Concurrent
// first calls build once; the rest wait and reuse the result.
type ProviderRegistry struct {
	embedding *lazy[driven.EmbeddingService]
	llm       *lazy[driven.LLMService]
}

// NewProviderRegistry creates a registry from provider factories.
// A nil llm factory means no generative backend is configured.
func NewProviderRegistry(embed EmbeddingFactory, llm LLMFactory) *ProviderRegistry {
	if embed == nil {
		embed = func(context.Context) (driven.EmbeddingService, error) {
			return nil, domain.ErrEmbeddingUnavailable
		}
	}
	if llm == nil {
		llm = func(context.Context) (driven.LLMService, error) {
			return nil, domain.ErrLLMUnavailable
		}
	}
	return &ProviderRegistry{
		embedding: &lazy[driven.EmbeddingService]{build: embed},
		llm:       &lazy[driven.LLMService]{build: llm},
	}
}

// NewStaticProviderRegistry wraps already-built providers.
// llm may be nil.
func NewStaticProviderRegistry(embed driven.EmbeddingService, llm driven.LLMService) *ProviderRegistry {
	var llmFactory LLMFactory
	if llm != nil {
		llmFactory = func(context.Context) (driven.LLMService, error) { return llm, nil }
	}
	return NewProviderRegistry(
		func(context.Context) (driven.EmbeddingService, error) {
			if embed == nil {
				return nil, domain.ErrEmbeddingUnavailable
			}
			return embed, nil
		},
		llmFactory,
	)
}

// Embedding returns the embedding provider, building it if needed.
func (r *ProviderRegistry) Embedding(ctx context.Context) (driven.EmbeddingService, error) {
	svc, err := r.embedding.get(ctx)
	if err != nil {
		logger.Debug("Embedding provider not ready: %v", err)
		return nil, err
	}
	return svc, nil
}

// LLM returns the generative backend, building it if needed.
func (r *ProviderRegistry) LLM(ctx context.Context) (driven.LLMService, error) {
	svc, err := r.llm.get(ctx)
	if err != nil {
		logger.Debug("LLM provider not ready: %v", err)
		return nil, err
	}
	return svc, nil
}

// Close releases any providers that were built.
func (r *ProviderRegistry) Close() error {
	var errs []error
	if svc, ok := r.embedding.peek(); ok && svc != nil {
		errs = append(errs, svc.Close())
	}
	if svc, ok := r.llm.peek(); ok && svc != nil {
		errs = append(errs, svc.Close())
	}
	return errors.Join(errs...)
}
