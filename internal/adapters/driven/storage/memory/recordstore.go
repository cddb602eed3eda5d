package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	entities  map[string][]domain.Entity
	chunks    map[string][]domain.Chunk
	queries   []domain.QueryLog
	nextID    int64
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		documents: make(map[string]domain.Document),
		entities:  make(map[string][]domain.Entity),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *RecordStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveEntities replaces the entities of a document.
func (s *RecordStore) SaveEntities(_ context.Context, documentID string, entities []domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Entity, len(entities))
	for i, e := range entities {
		s.nextID++
		e.ID = s.nextID
		e.DocumentID = documentID
		stored[i] = e
	}
	s.entities[documentID] = stored
	return nil
}

// SaveChunks replaces the chunk rows of a document.
func (s *RecordStore) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	for i := range stored {
		stored[i].DocumentID = documentID
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Index < stored[j].Index })
	s.chunks[documentID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *RecordStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks returns a document's chunks in index order.
func (s *RecordStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks[documentID]...), nil
}

// GetEntities returns a document's entities in extraction order.
func (s *RecordStore) GetEntities(_ context.Context, documentID string) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.withFilename(s.entities[documentID]), nil
}

// SearchEntities finds entities by type and/or a value substring.
// Matching on the value is case-insensitive, like SQL LIKE.
func (s *RecordStore) SearchEntities(
	_ context.Context,
	entityType domain.EntityType,
	value string,
) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(value)
	var result []domain.Entity
	for _, list := range s.entities {
		for _, e := range list {
			if entityType != "" && e.Type != entityType {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(e.Value), needle) {
				continue
			}
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return s.withFilename(result), nil
}

// withFilename copies entities and fills the owning document's filename.
// Callers hold the read lock.
func (s *RecordStore) withFilename(entities []domain.Entity) []domain.Entity {
	out := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		e.Filename = s.documents[e.DocumentID].Filename
		out = append(out, e)
	}
	return out
}

// ListDocuments returns all documents, newest upload first.
func (s *RecordStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedDocuments(func(domain.Document) bool { return true }), nil
}

// ListByType returns documents of one type, newest upload first.
func (s *RecordStore) ListByType(_ context.Context, docType domain.DocumentType) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedDocuments(func(d domain.Document) bool { return d.Type == docType }), nil
}

func (s *RecordStore) sortedDocuments(keep func(domain.Document) bool) []domain.Document {
	var result []domain.Document
	for id := range s.documents {
		if doc := s.documents[id]; keep(doc) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// DeleteDocument removes a document with its entities and chunks.
func (s *RecordStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.entities, id)
	delete(s.chunks, id)
	return nil
}

// LogQuery appends an answered query to the log.
func (s *RecordStore) LogQuery(_ context.Context, entry *domain.QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.ID = int64(len(s.queries) + 1)
	s.queries = append(s.queries, *entry)
	return nil
}

// RecentQueries returns the latest logged queries, newest first.
func (s *RecordStore) RecentQueries(_ context.Context, limit int) ([]domain.QueryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.QueryLog
	for i := len(s.queries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.queries[i])
	}
	return result, nil
}

// Statistics aggregates the stored corpus.
func (s *RecordStore) Statistics(_ context.Context) (*domain.CorpusStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.CorpusStatistics{
		TotalDocuments: len(s.documents),
		ByType:         make(map[domain.DocumentType]int),
		TotalQueries:   len(s.queries),
	}
	var sum float64
	for id := range s.documents {
		doc := s.documents[id]
		stats.ByType[doc.Type]++
		sum += doc.QualityScore
	}
	if len(s.documents) > 0 {
		stats.AverageQualityScore = math.Round(sum/float64(len(s.documents))*100) / 100
	}
	for _, list := range s.entities {
		stats.TotalEntities += len(list)
	}
	return stats, nil
}

// Close releases resources.
func (s *RecordStore) Close() error {
	return nil
}
