package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore keeps vectors in a map and ranks by brute-force cosine distance.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]domain.VectorRecord),
	}
}

// Upsert inserts or replaces records by id.
func (s *VectorStore) Upsert(_ context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %s has no embedding", domain.ErrInvalidInput, r.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		s.records[r.ID] = r
	}
	return nil
}

// Query returns up to k records ordered by ascending cosine distance.
func (s *VectorStore) Query(
	ctx context.Context,
	vector []float32,
	k int,
	filter domain.VectorFilter,
) ([]domain.VectorMatch, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.VectorMatch, 0, len(s.records))
	for id := range s.records {
		r := s.records[id]
		if !vecmath.Matches(r.Metadata, filter) {
			continue
		}
		dist, err := vecmath.CosineDistance(vector, r.Embedding)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.VectorMatch{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: dist,
		})
	}
	return vecmath.Rank(matches, k), nil
}

// DeleteByDocument removes every record of a document.
func (s *VectorStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.records {
		if s.records[id].Metadata.DocumentID == documentID {
			delete(s.records, id)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}
