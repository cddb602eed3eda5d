package domain

import "slices"

const unknownDescription = "Unknown"

// AIProvider identifies a provider for embeddings or text generation.
type AIProvider string

const (
	// AIProviderLocal is the in-process hashing embedder. Embeddings only.
	AIProviderLocal     AIProvider = "local"
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic" // generation only
)

// providerInfo is what the rest of the package knows about a provider.
type providerInfo struct {
	description string
	embedModel  string // empty when the provider cannot embed
	llmModel    string // empty when the provider cannot generate
	needsKey    bool
	local       bool
}

// providerOrder fixes the order menus list providers in.
var providerOrder = []AIProvider{AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}

var providers = map[AIProvider]providerInfo{
	AIProviderLocal:     {description: "Local (in-process hashing)", embedModel: "hashing-384", local: true},
	AIProviderOllama:    {description: "Ollama (local)", embedModel: "all-minilm", llmModel: "llama3:8b", local: true},
	AIProviderOpenAI:    {description: "OpenAI (cloud)", embedModel: "text-embedding-3-small", llmModel: "gpt-4o-mini", needsKey: true},
	AIProviderAnthropic: {description: "Anthropic (cloud)", llmModel: "claude-3-5-sonnet-latest", needsKey: true},
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey is true for the cloud providers.
func (p AIProvider) RequiresAPIKey() bool { return providers[p].needsKey }

// IsLocal is true when the provider runs on this machine.
func (p AIProvider) IsLocal() bool { return providers[p].local }

// SupportsEmbeddings reports whether p can back the embedding stage.
func (p AIProvider) SupportsEmbeddings() bool { return providers[p].embedModel != "" }

// SupportsGeneration reports whether p can write answers.
func (p AIProvider) SupportsGeneration() bool { return providers[p].llmModel != "" }

// String returns the provider identifier.
func (p AIProvider) String() string { return string(p) }

// Description is the label shown in settings and the wizard.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return unknownDescription
}

// EmbeddingSettings selects the model chunks and questions are embedded with.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL points at Ollama or an OpenAI-compatible server.
	BaseURL string
	APIKey  string
}

// IsConfigured is false for providers that cannot embed or lack a key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && (!e.Provider.RequiresAPIKey() || e.APIKey != "")
}

// LLMSettings selects the model that writes answers.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured is false for providers that cannot generate or lack a key.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.SupportsGeneration() && (!l.Provider.RequiresAPIKey() || l.APIKey != "")
}

// StorageBackend selects where records and vectors live.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps records and vectors in a local SQLite file.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"

	// StoragePostgres keeps records in SQLite and vectors in Postgres with pgvector.
	StoragePostgres StorageBackend = "postgres"
)

// IsValid reports whether b is a supported backend.
func (b StorageBackend) IsValid() bool {
	return slices.Contains(AllStorageBackends(), b)
}

// String returns the backend identifier.
func (b StorageBackend) String() string {
	return string(b)
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Backend selects the vector store implementation.
	Backend StorageBackend

	// DataDir holds the SQLite database. Empty means ~/.bankdoc/data.
	DataDir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string
}

// ChunkingSettings controls text chunking.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared between consecutive chunks.
	Overlap int
}

// QuerySettings controls the query path.
type QuerySettings struct {
	// TopK is the number of chunks to retrieve.
	TopK int

	// MaxTokens bounds generated answer length.
	MaxTokens int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Chunking  ChunkingSettings
	Query     QuerySettings
}

// Defaults used when a setting is absent.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultTopK         = 5
	DefaultMaxTokens    = 500
	DefaultOllamaURL    = "http://localhost:11434"
)

// DefaultAppSettings returns settings that work offline out of the box.
// Embeddings use the local hashing model and generation targets a local
// Ollama; when Ollama is down answers fall back to excerpts.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
			Model:    DefaultEmbeddingModels()[AIProviderLocal],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaURL,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Query: QuerySettings{
			TopK:      DefaultTopK,
			MaxTokens: DefaultMaxTokens,
		},
	}
}

// AllEmbeddingProviders lists, in menu order, providers that can embed.
func AllEmbeddingProviders() []AIProvider {
	return slices.DeleteFunc(slices.Clone(providerOrder), func(p AIProvider) bool { return !p.SupportsEmbeddings() })
}

// AllLLMProviders lists, in menu order, providers that can generate.
func AllLLMProviders() []AIProvider {
	return slices.DeleteFunc(slices.Clone(providerOrder), func(p AIProvider) bool { return !p.SupportsGeneration() })
}

// AllStorageBackends returns every supported backend, default first.
func AllStorageBackends() []StorageBackend {
	return []StorageBackend{StorageSQLite, StorageMemory, StoragePostgres}
}

// DefaultEmbeddingModels maps each embedding provider to its default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := map[AIProvider]string{}
	for p, info := range providers {
		if info.embedModel != "" {
			out[p] = info.embedModel
		}
	}
	return out
}

// DefaultLLMModels maps each generating provider to its default model.
func DefaultLLMModels() map[AIProvider]string {
	out := map[AIProvider]string{}
	for p, info := range providers {
		if info.llmModel != "" {
			out[p] = info.llmModel
		}
	}
	return out
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-384":            384,
		"all-minilm":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
