package driven

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// PostProcessor turns a document's text into retrievable chunks, or
// rewrites chunks produced by an earlier stage.
type PostProcessor interface {
	// Name identifies the processor in the registry and in logs.
	Name() string

	// Process receives nil chunks when it is the first stage.
	// Returned chunk IDs must follow domain.ChunkID.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs the configured stages in order at ingest time.
type PostProcessorPipeline interface {
	// Process returns the chunks left after the last stage.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
