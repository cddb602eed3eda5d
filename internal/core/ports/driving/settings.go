package driving

import "github.com/custodia-labs/bankdoc-rag/internal/core/domain"

// SettingsService reads and edits ~/.bankdoc/config.toml. The Set methods
// validate their input before anything is written.
type SettingsService interface {
	// Get merges stored values over the defaults and the environment.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetStorage(backend domain.StorageBackend, dataDir, postgresDSN string) error
	SetChunking(size, overlap int) error
	SetQuery(topK, maxTokens int) error

	// Validate checks the stored values without contacting any provider.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// provider.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
