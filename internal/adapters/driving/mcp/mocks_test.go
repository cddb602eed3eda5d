package mcp

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// mockPipelineService is a mock implementation of driving.PipelineService.
type mockPipelineService struct {
	result    *domain.QueryResult
	ingest    *domain.IngestResult
	stats     *domain.IndexStats
	err       error
	lastOpts  driving.QueryOptions
	lastQuery string
	lastReq   driving.IngestRequest
	rechecks  int
}

func (m *mockPipelineService) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	m.lastReq = req
	return m.ingest, m.err
}

func (m *mockPipelineService) IngestFile(_ context.Context, _ string) (*domain.IngestResult, error) {
	return m.ingest, m.err
}

func (m *mockPipelineService) Query(_ context.Context, question string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	m.lastQuery = question
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockPipelineService) DeleteDocument(_ context.Context, _ string) error {
	return m.err
}

func (m *mockPipelineService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockPipelineService) RecheckBackend() {
	m.rechecks++
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	entities  []domain.Entity
	summary   *domain.EntitySummary
	corpus    *domain.CorpusStatistics
	err       error
}

func (m *mockDocumentService) List(_ context.Context, _ domain.DocumentType) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Entities(_ context.Context, _ string) ([]domain.Entity, error) {
	return m.entities, m.err
}

func (m *mockDocumentService) EntityPositions(context.Context, string) ([]domain.EntityMatch, error) {
	return nil, nil
}

func (m *mockDocumentService) EntitySummary(_ context.Context, _ string) (*domain.EntitySummary, error) {
	return m.summary, m.err
}

func (m *mockDocumentService) SearchEntities(_ context.Context, _ domain.EntityType, _ string) ([]domain.Entity, error) {
	return m.entities, m.err
}

func (m *mockDocumentService) RecentQueries(_ context.Context, _ int) ([]domain.QueryLog, error) {
	return nil, m.err
}

func (m *mockDocumentService) Statistics(_ context.Context) (*domain.CorpusStatistics, error) {
	if m.corpus != nil {
		return m.corpus, m.err
	}
	return &domain.CorpusStatistics{}, m.err
}
