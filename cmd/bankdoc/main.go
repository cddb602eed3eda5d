// Command bankdoc answers questions over ingested banking documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/core/services"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/normalisers"
	"github.com/custodia-labs/bankdoc-rag/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; keys may already be in the environment.
	_ = godotenv.Load()

	configDir, err := file.DefaultDir()
	if err != nil {
		logger.Error("%v", err)
		return err
	}
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Ignoring %s/.env: %v", configDir, err)
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		logger.Error("Loading configuration: %v", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetVersion(version)

	settings, err := settingsService.Get()
	if err != nil {
		logger.Error("Reading settings: %v", err)
		return err
	}

	app, err := build(settings, configDir)
	if err != nil {
		// Settings stay usable so the configuration can be repaired.
		logger.Error("%v", err)
		logger.Error("Run 'bankdoc settings' to review the configuration.")
		cli.SetServices(nil, nil, settingsService)
		return cli.Execute()
	}
	defer app.close()

	cli.SetServices(app.pipeline, app.documents, settingsService)
	return cli.Execute()
}

// application holds the wired services and everything that needs closing.
type application struct {
	pipeline  *services.Pipeline
	documents *services.DocumentService
	closers   []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
}

func build(settings *domain.AppSettings, configDir string) (*application, error) {
	app := &application{}

	records, vectors, err := openStores(settings, app)
	if err != nil {
		app.close()
		return nil, err
	}

	embedding := settings.Embedding
	llm := settings.LLM
	providers := services.NewProviderRegistry(
		func(ctx context.Context) (driven.EmbeddingService, error) {
			return ai.CreateAndValidateEmbeddingService(ctx, &embedding)
		},
		func(ctx context.Context) (driven.LLMService, error) {
			return ai.CreateAndValidateLLMService(ctx, &llm)
		},
	)
	app.closers = append(app.closers, providers.Close)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		app.close()
		return nil, fmt.Errorf("opening prompt store: %w", err)
	}

	chunker, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("building chunker: %w", err)
	}

	synthesizer := services.NewAnswerSynthesizer(providers, prompts)
	index := services.NewRetrievalIndex(providers, vectors, synthesizer)

	app.pipeline = services.NewPipeline(index, synthesizer, records, chunker, normalisers.NewDefaultRegistry(),
		services.PipelineConfig{
			TopK:      settings.Query.TopK,
			MaxTokens: settings.Query.MaxTokens,
		})
	app.documents = services.NewDocumentService(records)
	return app, nil
}

// openStores opens the record and vector stores for the configured backend.
func openStores(settings *domain.AppSettings, app *application) (driven.RecordStore, driven.VectorStore, error) {
	switch settings.Storage.Backend {
	case domain.StorageMemory:
		logger.Debug("Using in-memory storage; nothing is persisted")
		return memory.NewRecordStore(), memory.NewVectorStore(), nil

	case domain.StorageSQLite, "":
		store, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		app.closers = append(app.closers, store.Close)
		logger.Debug("Using SQLite storage at %s", store.Path())
		return store.RecordStore(), store.VectorStore(), nil

	case domain.StoragePostgres:
		store, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		app.closers = append(app.closers, store.Close)

		dims := domain.EmbeddingDimensions()[settings.Embedding.Model]
		if dims == 0 {
			return nil, nil, fmt.Errorf("%w: unknown dimensions for embedding model %q",
				domain.ErrVectorStoreUnavailable, settings.Embedding.Model)
		}
		vectors, err := postgres.NewVectorStore(postgres.Config{
			DSN:        settings.Storage.PostgresDSN,
			Dimensions: dims,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		app.closers = append(app.closers, vectors.Close)
		logger.Debug("Using Postgres vectors with SQLite records at %s", store.Path())
		return store.RecordStore(), vectors, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q",
			domain.ErrInvalidInput, settings.Storage.Backend)
	}
}
