package driven

import "github.com/custodia-labs/bankdoc-rag/internal/core/domain"

// AIConfigValidator checks AI provider settings before they are saved.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	// Returns nil if config is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the generative backend described by config.
	// Returns nil if config is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
