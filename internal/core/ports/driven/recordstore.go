package driven

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// RecordStore persists documents, their entities, the chunk-to-vector
// mapping, and the query log.
type RecordStore interface {
	// SaveDocument stores or replaces a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveEntities replaces the entities of a document.
	SaveEntities(ctx context.Context, documentID string, entities []domain.Entity) error

	// SaveChunks replaces the chunk rows of a document.
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns a document's chunks in index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetEntities returns a document's entities in extraction order.
	GetEntities(ctx context.Context, documentID string) ([]domain.Entity, error)

	// ListDocuments returns all documents, newest upload first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListByType returns documents of one type, newest upload first.
	ListByType(ctx context.Context, docType domain.DocumentType) ([]domain.Document, error)

	// SearchEntities finds entities by type and/or a value substring.
	// Empty arguments do not filter.
	SearchEntities(ctx context.Context, entityType domain.EntityType, value string) ([]domain.Entity, error)

	// DeleteDocument removes a document with its entities and chunk rows.
	// Returns ErrNotFound when the document does not exist.
	DeleteDocument(ctx context.Context, id string) error

	// LogQuery appends an answered query to the log.
	LogQuery(ctx context.Context, entry *domain.QueryLog) error

	// RecentQueries returns the latest logged queries, newest first.
	RecentQueries(ctx context.Context, limit int) ([]domain.QueryLog, error)

	// Statistics aggregates the stored corpus.
	Statistics(ctx context.Context) (*domain.CorpusStatistics, error)

	// Close releases resources.
	Close() error
}
