package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator pings providers before the settings service saves them,
// so a mistyped key or URL is rejected at configuration time.
type ConfigValidator struct {
	ctx context.Context
}

// NewConfigValidator returns a validator bound to context.Background.
func NewConfigValidator() *ConfigValidator {
	return NewConfigValidatorContext(context.Background())
}

// NewConfigValidatorContext bounds every ping by ctx as well as PingTimeout.
func NewConfigValidatorContext(ctx context.Context) *ConfigValidator {
	return &ConfigValidator{ctx: ctx}
}

// ValidateEmbedding returns nil for unconfigured settings.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if err := ValidateEmbeddingConfig(v.ctx, config); err != nil {
		return fmt.Errorf("%s embedding %q: %w", config.Provider, config.Model, err)
	}
	return nil
}

// ValidateLLM returns nil for unconfigured settings.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if err := ValidateLLMConfig(v.ctx, config); err != nil {
		return fmt.Errorf("%s LLM %q: %w", config.Provider, config.Model, err)
	}
	return nil
}
