package services

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// Keys are dotted paths into config.toml.
//
//nolint:gosec // key names, not credentials
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyStorageBackend   = "storage.backend"
	keyStorageDataDir   = "storage.data_dir"
	keyStoragePostgres  = "storage.postgres_dsn"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyQueryTopK        = "query.top_k"
	keyQueryMaxTokens   = "query.max_tokens"
	envOpenAIKey        = "OPENAI_API_KEY"
	envAnthropicKey     = "ANTHROPIC_API_KEY"
	envPostgresDSN      = "BANKDOC_POSTGRES_DSN"
	defaultLocalBaseURL = domain.DefaultOllamaURL
)

// SettingsService reads and writes AppSettings through a ConfigStore.
// API keys and the Postgres DSN fall back to environment variables when the
// config file leaves them empty, and such values are never written back.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get returns the stored settings over the defaults. Unknown provider or
// backend names read as the default.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()
	c := s.configStore

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  c.GetString(keyEmbedBaseURL),
			APIKey:   c.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  c.GetString(keyLLMBaseURL),
			APIKey:   c.GetString(keyLLMAPIKey),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(d.Storage.Backend),
			DataDir:     c.GetString(keyStorageDataDir),
			PostgresDSN: c.GetString(keyStoragePostgres),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Query: domain.QuerySettings{
			TopK:      s.getInt(keyQueryTopK, d.Query.TopK),
			MaxTokens: s.getInt(keyQueryMaxTokens, d.Query.MaxTokens),
		},
	}

	if settings.Embedding.Provider == domain.AIProviderOllama {
		settings.Embedding.BaseURL = cmp.Or(settings.Embedding.BaseURL, defaultLocalBaseURL)
	}
	if settings.LLM.Provider == domain.AIProviderOllama {
		settings.LLM.BaseURL = cmp.Or(settings.LLM.BaseURL, defaultLocalBaseURL)
	}
	settings.Embedding.APIKey = cmp.Or(settings.Embedding.APIKey, s.envKey(settings.Embedding.Provider))
	settings.LLM.APIKey = cmp.Or(settings.LLM.APIKey, s.envKey(settings.LLM.Provider))
	settings.Storage.PostgresDSN = cmp.Or(settings.Storage.PostgresDSN, s.env(envPostgresDSN))
	return settings, nil
}

// entry is one persisted value. Secrets are skipped when empty or equal to
// their environment fallback.
type entry struct {
	key    string
	value  any
	secret bool
	env    string
}

func (s *SettingsService) entries(a *domain.AppSettings) []entry {
	return []entry{
		{key: keyEmbedProvider, value: a.Embedding.Provider.String()},
		{key: keyEmbedModel, value: a.Embedding.Model},
		{key: keyEmbedBaseURL, value: a.Embedding.BaseURL},
		{key: keyEmbedAPIKey, value: a.Embedding.APIKey, secret: true, env: s.envKey(a.Embedding.Provider)},
		{key: keyLLMProvider, value: a.LLM.Provider.String()},
		{key: keyLLMModel, value: a.LLM.Model},
		{key: keyLLMBaseURL, value: a.LLM.BaseURL},
		{key: keyLLMAPIKey, value: a.LLM.APIKey, secret: true, env: s.envKey(a.LLM.Provider)},
		{key: keyStorageBackend, value: a.Storage.Backend.String()},
		{key: keyStorageDataDir, value: a.Storage.DataDir},
		{key: keyStoragePostgres, value: a.Storage.PostgresDSN, secret: true, env: s.env(envPostgresDSN)},
		{key: keyChunkSize, value: a.Chunking.Size},
		{key: keyChunkOverlap, value: a.Chunking.Overlap},
		{key: keyQueryTopK, value: a.Query.TopK},
		{key: keyQueryMaxTokens, value: a.Query.MaxTokens},
	}
}

// Save writes every setting to the config store.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, e := range s.entries(settings) {
		if e.secret && (e.value == "" || e.value == e.env) {
			continue
		}
		if err := s.configStore.Set(e.key, e.value); err != nil {
			return fmt.Errorf("save %s: %w", e.key, err)
		}
	}
	return nil
}

// resolveKey checks provider is one of supported and returns the API key
// to use, taking it from the environment when apiKey is empty.
func (s *SettingsService) resolveKey(kind string, provider domain.AIProvider, supported []domain.AIProvider, apiKey string) (string, error) {
	if !provider.IsValid() {
		return "", fmt.Errorf("invalid %s provider: %s", kind, provider)
	}
	if !slices.Contains(supported, provider) {
		return "", fmt.Errorf("provider %s does not support %s", provider, capability[kind])
	}
	apiKey = cmp.Or(apiKey, s.envKey(provider))
	if provider.RequiresAPIKey() && apiKey == "" {
		return "", fmt.Errorf("API key required for %s", provider)
	}
	return apiKey, nil
}

var capability = map[string]string{"embedding": "embeddings", "LLM": "text generation"}

// baseURLFor is the address kept when switching to provider: a custom Ollama
// address survives, anything else is cleared.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	return cmp.Or(current, defaultLocalBaseURL)
}

// SetEmbeddingProvider switches the embedding backend. An empty model
// selects the provider's default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	apiKey, err := s.resolveKey("embedding", provider, domain.AllEmbeddingProviders(), apiKey)
	if err != nil {
		return err
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}

	previous := settings.Embedding.Model
	settings.Embedding = domain.EmbeddingSettings{
		Provider: provider,
		Model:    cmp.Or(model, domain.DefaultEmbeddingModels()[provider]),
		BaseURL:  baseURLFor(provider, settings.Embedding.BaseURL),
		APIKey:   apiKey,
	}
	if previous != settings.Embedding.Model {
		logger.Warn("Embedding model changed from %s to %s; re-ingest documents to rebuild vectors",
			previous, settings.Embedding.Model)
	}
	return s.Save(settings)
}

// SetLLMProvider switches the answer-writing backend.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	apiKey, err := s.resolveKey("LLM", provider, domain.AllLLMProviders(), apiKey)
	if err != nil {
		return err
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM = domain.LLMSettings{
		Provider: provider,
		Model:    cmp.Or(model, domain.DefaultLLMModels()[provider]),
		BaseURL:  baseURLFor(provider, settings.LLM.BaseURL),
		APIKey:   apiKey,
	}
	return s.Save(settings)
}

// SetStorage selects the storage backend.
func (s *SettingsService) SetStorage(backend domain.StorageBackend, dataDir, postgresDSN string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Storage.Backend = backend
	if dataDir != "" {
		settings.Storage.DataDir = dataDir
	}
	if postgresDSN != "" {
		settings.Storage.PostgresDSN = postgresDSN
	}
	if backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres backend requires a DSN (or %s)", envPostgresDSN)
	}

	return s.Save(settings)
}

// SetChunking updates chunk size and overlap.
func (s *SettingsService) SetChunking(size, overlap int) error {
	if err := validateChunking(domain.ChunkingSettings{Size: size, Overlap: overlap}); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking.Size = size
	settings.Chunking.Overlap = overlap
	return s.Save(settings)
}

// SetQuery updates retrieval depth and answer length.
func (s *SettingsService) SetQuery(topK, maxTokens int) error {
	if err := validateQuery(domain.QuerySettings{TopK: topK, MaxTokens: maxTokens}); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Query.TopK = topK
	settings.Query.MaxTokens = maxTokens
	return s.Save(settings)
}

// Validate checks that current settings are usable.
// The generative backend is optional, but a half-configured one is reported.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", settings.Storage.Backend)
	}
	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres backend requires a DSN (or %s)", envPostgresDSN)
	}
	if err := validateChunking(settings.Chunking); err != nil {
		return err
	}
	return validateQuery(settings.Query)
}

func validateChunking(c domain.ChunkingSettings) error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap must be between 0 and %d", domain.ErrInvalidInput, c.Size-1)
	}
	return nil
}

func validateQuery(q domain.QuerySettings) error {
	if q.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	if q.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	return cmp.Or(s.configStore.GetString(key), defaultVal)
}

// getInt returns defaultVal only when the key is absent, so zero can be stored.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	if p := domain.AIProvider(s.configStore.GetString(key)); p.IsValid() {
		return p
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) env(name string) string {
	if s.lookupEnv == nil {
		return ""
	}
	v, _ := s.lookupEnv(name)
	return v
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.env(envOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.env(envAnthropicKey)
	default:
		return ""
	}
}
