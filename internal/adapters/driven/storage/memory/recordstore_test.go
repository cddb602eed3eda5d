package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

func saveDoc(t *testing.T, s *RecordStore, id string, docType domain.DocumentType, score float64, at time.Time) {
	t.Helper()
	require.NoError(t, s.SaveDocument(context.Background(), &domain.Document{
		ID:           id,
		Filename:     id + ".pdf",
		Type:         docType,
		Status:       domain.DocumentStatusCompleted,
		QualityScore: score,
		UploadedAt:   at,
	}))
}

func TestRecordStore_Documents(t *testing.T) {
	s := NewRecordStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	saveDoc(t, s, "old", domain.DocTypeKYC, 80, base)
	saveDoc(t, s, "new", domain.DocTypeSalarySlip, 90, base.Add(time.Hour))

	doc, err := s.GetDocument(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "old.pdf", doc.Filename)

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)

	slips, err := s.ListByType(ctx, domain.DocTypeSalarySlip)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	assert.Equal(t, "new", slips[0].ID)
}

func TestRecordStore_EntitiesAndChunks(t *testing.T) {
	s := NewRecordStore()
	ctx := context.Background()
	saveDoc(t, s, "doc", domain.DocTypeKYC, 80, time.Now())

	require.NoError(t, s.SaveEntities(ctx, "doc", []domain.Entity{
		{Type: domain.EntityPAN, Value: "ABCPE1234F", Valid: true},
		{Type: domain.EntityIFSC, Value: "SBIN0001234", Valid: true},
	}))
	require.NoError(t, s.SaveChunks(ctx, "doc", []domain.Chunk{
		{ID: "doc_chunk_1", Index: 1, Text: "b"},
		{ID: "doc_chunk_0", Index: 0, Text: "a"},
	}))

	entities, err := s.GetEntities(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "doc.pdf", entities[0].Filename)
	assert.Equal(t, "doc", entities[0].DocumentID)

	found, err := s.SearchEntities(ctx, "", "sbin")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.EntityIFSC, found[0].Type)

	chunks, err := s.GetChunks(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)

	require.NoError(t, s.DeleteDocument(ctx, "doc"))
	assert.ErrorIs(t, s.DeleteDocument(ctx, "doc"), domain.ErrNotFound)
	chunks, err = s.GetChunks(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRecordStore_QueryLogAndStatistics(t *testing.T) {
	s := NewRecordStore()
	ctx := context.Background()
	saveDoc(t, s, "a", domain.DocTypeKYC, 70, time.Now())
	saveDoc(t, s, "b", domain.DocTypeKYC, 75.555, time.Now())
	require.NoError(t, s.SaveEntities(ctx, "a", []domain.Entity{{Type: domain.EntityEmail, Value: "x@y.in"}}))

	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, s.LogQuery(ctx, &domain.QueryLog{Question: q}))
	}

	recent, err := s.RecentQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Question)
	assert.Equal(t, "two", recent[1].Question)

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 2, stats.ByType[domain.DocTypeKYC])
	assert.InDelta(t, 72.78, stats.AverageQualityScore, 1e-9)
	assert.Equal(t, 1, stats.TotalEntities)
	assert.Equal(t, 3, stats.TotalQueries)
}

func TestRecordStore_Concurrent(t *testing.T) {
	s := NewRecordStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.LogQuery(ctx, &domain.QueryLog{Question: "q"})
			_, _ = s.Statistics(ctx)
		}()
	}
	wg.Wait()

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalQueries)
}
