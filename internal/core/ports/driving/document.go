package driving

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// DocumentService reads ingested documents and their entities.
type DocumentService interface {
	// List returns documents, newest first. An empty type lists all documents.
	List(ctx context.Context, docType domain.DocumentType) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns a document's chunks in index order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Entities returns a document's persisted entities.
	Entities(ctx context.Context, documentID string) ([]domain.Entity, error)

	// EntityPositions locates every entity occurrence in a document's text.
	// Offsets are byte positions.
	EntityPositions(ctx context.Context, documentID string) ([]domain.EntityMatch, error)
	// EntitySummary aggregates a document's entities with validator outcomes.
	EntitySummary(ctx context.Context, documentID string) (*domain.EntitySummary, error)

	// SearchEntities finds entities across documents by type and value substring.
	SearchEntities(ctx context.Context, entityType domain.EntityType, value string) ([]domain.Entity, error)

	// RecentQueries returns the latest answered queries.
	RecentQueries(ctx context.Context, limit int) ([]domain.QueryLog, error)

	// Statistics aggregates the whole corpus.
	Statistics(ctx context.Context) (*domain.CorpusStatistics, error)
}
