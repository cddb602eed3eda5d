package driven

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// VectorStore holds chunk vectors keyed by chunk id and answers
// nearest-neighbour queries with metadata equality filters.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Upsert inserts or replaces records by id.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns up to k records ordered by ascending cosine distance.
	// Records not matching the filter are never returned.
	Query(ctx context.Context, vector []float32, k int, filter domain.VectorFilter) ([]domain.VectorMatch, error)

	// DeleteByDocument removes every record of a document.
	// Deleting an unknown document is not an error.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
