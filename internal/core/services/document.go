package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
	"github.com/custodia-labs/bankdoc-rag/internal/extraction"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// defaultRecentQueries is used when RecentQueries is called without a limit.
const defaultRecentQueries = 10

// DocumentService reads documents, entities and the query log.
type DocumentService struct {
	records driven.RecordStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(records driven.RecordStore) *DocumentService {
	return &DocumentService{records: records}
}

// List returns documents, newest first, optionally of one type.
func (s *DocumentService) List(ctx context.Context, docType domain.DocumentType) ([]domain.Document, error) {
	if docType == "" {
		return s.records.ListDocuments(ctx)
	}
	if !docType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, docType)
	}
	return s.records.ListByType(ctx, docType)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.records.GetDocument(ctx, documentID)
}

// Chunks returns a document's chunks in index order.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.records.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.records.GetChunks(ctx, documentID)
}

// Entities returns a document's persisted entities.
func (s *DocumentService) Entities(ctx context.Context, documentID string) ([]domain.Entity, error) {
	if _, err := s.records.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.records.GetEntities(ctx, documentID)
}

// EntityPositions re-runs extraction over the stored text to locate each
// occurrence, duplicates included.
func (s *DocumentService) EntityPositions(ctx context.Context, documentID string) ([]domain.EntityMatch, error) {
	doc, err := s.records.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return extraction.ExtractWithPositions(doc.Text), nil
}

// EntitySummary rebuilds the entity map from persisted rows and summarises it.
func (s *DocumentService) EntitySummary(ctx context.Context, documentID string) (*domain.EntitySummary, error) {
	entities, err := s.Entities(ctx, documentID)
	if err != nil {
		return nil, err
	}

	m := make(domain.EntityMap)
	for _, e := range entities {
		m[e.Type] = append(m[e.Type], e.Value)
	}

	summary := extraction.Summarize(m)
	return &summary, nil
}

// SearchEntities finds entities across documents.
func (s *DocumentService) SearchEntities(
	ctx context.Context, entityType domain.EntityType, value string,
) ([]domain.Entity, error) {
	if entityType != "" && !entityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", domain.ErrInvalidInput, entityType)
	}
	return s.records.SearchEntities(ctx, entityType, value)
}

// RecentQueries returns the latest answered queries.
func (s *DocumentService) RecentQueries(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	if limit <= 0 {
		limit = defaultRecentQueries
	}
	return s.records.RecentQueries(ctx, limit)
}

// Statistics aggregates the whole corpus.
func (s *DocumentService) Statistics(ctx context.Context) (*domain.CorpusStatistics, error) {
	return s.records.Statistics(ctx)
}
