// Package ai builds the embedding and LLM adapters named by the settings and
// checks they answer before the pipeline relies on them.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

// PingTimeout bounds the reachability check made before first use.
const PingTimeout = 5 * time.Second

// fixHint is appended to embedding errors; without embeddings nothing works.
const fixHint = "Run 'bankdoc settings wizard' to fix"

// pinger is the part of both service ports needed to check a provider.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// checkReachable pings svc within PingTimeout and closes it on failure.
func checkReachable[S pinger](ctx context.Context, svc S) (S, error) {
	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		var zero S
		return zero, err
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService builds the configured embedder and pings
// it. Every failure wraps domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider not configured. %s", domain.ErrEmbeddingUnavailable, fixHint)
	}
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	svc, err = checkReachable(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	logger.Debug("Embedding provider %s ready (%s, %d dims)", settings.Provider, svc.ModelName(), svc.Dimensions())
	return svc, nil
}

// CreateAndValidateLLMService builds the configured LLM and pings it. Every
// failure wraps domain.ErrLLMUnavailable, which callers treat as "answer
// with excerpts" rather than fatal.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider not configured", domain.ErrLLMUnavailable)
	}
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	svc, err = checkReachable(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	logger.Debug("LLM provider %s ready (%s)", settings.Provider, svc.ModelName())
	return svc, nil
}

// ValidateEmbeddingConfig pings the embedder described by settings and
// releases it. Unconfigured settings pass.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc, err = checkReachable(ctx, svc); err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig is ValidateEmbeddingConfig for the LLM.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc, err = checkReachable(ctx, svc); err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService builds an embedder without contacting it.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrInvalidInput)
	}
	dims := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderLocal:
		return hashing.NewEmbeddingService(hashing.Config{Model: settings.Model, Dimensions: dims}), nil
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
		})
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use local, ollama or openai")
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService builds an LLM client without contacting it. The local
// provider has no generative model.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no LLM settings", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
