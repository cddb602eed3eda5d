package tui

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// MockPipelineService implements driving.PipelineService for testing.
type MockPipelineService struct {
	QueryFunc func(ctx context.Context, question string, opts driving.QueryOptions) (*domain.QueryResult, error)
	deleted   []string
}

func (m *MockPipelineService) Ingest(context.Context, driving.IngestRequest) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *MockPipelineService) IngestFile(context.Context, string) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *MockPipelineService) Query(ctx context.Context, question string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, question, opts)
	}
	return &domain.QueryResult{Question: question}, nil
}

func (m *MockPipelineService) DeleteDocument(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockPipelineService) Stats(context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{TotalRecords: 7, EmbeddingModel: "hashing"}, nil
}

func (m *MockPipelineService) RecheckBackend() {}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	Docs []domain.Document
}

func (m *MockDocumentService) List(context.Context, domain.DocumentType) ([]domain.Document, error) {
	return m.Docs, nil
}

func (m *MockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.Docs {
		if m.Docs[i].ID == id {
			return &m.Docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *MockDocumentService) Entities(context.Context, string) ([]domain.Entity, error) {
	return nil, nil
}

func (m *MockDocumentService) EntityPositions(context.Context, string) ([]domain.EntityMatch, error) {
	return nil, nil
}

func (m *MockDocumentService) EntitySummary(context.Context, string) (*domain.EntitySummary, error) {
	return &domain.EntitySummary{Counts: map[domain.EntityType]int{}}, nil
}

func (m *MockDocumentService) SearchEntities(context.Context, domain.EntityType, string) ([]domain.Entity, error) {
	return nil, nil
}

func (m *MockDocumentService) RecentQueries(context.Context, int) ([]domain.QueryLog, error) {
	return nil, nil
}

func (m *MockDocumentService) Statistics(context.Context) (*domain.CorpusStatistics, error) {
	return &domain.CorpusStatistics{TotalDocuments: len(m.Docs)}, nil
}

var (
	_ driving.PipelineService = (*MockPipelineService)(nil)
	_ driving.DocumentService = (*MockDocumentService)(nil)
)
