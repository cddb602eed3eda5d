package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

func vectorRecord(docID string, i int, docType domain.DocumentType, emb ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:        domain.ChunkID(docID, i),
		Text:      "chunk text",
		Embedding: emb,
		Metadata: domain.RecordMetadata{
			DocumentID: docID,
			Filename:   docID + ".pdf",
			DocType:    docType,
			ChunkIndex: i,
		},
	}
}

func TestVectorStore_UpsertQuery(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	require.NoError(t, vs.Upsert(ctx, []domain.VectorRecord{
		vectorRecord("kyc", 0, domain.DocTypeKYC, 1, 0, 0),
		vectorRecord("kyc", 1, domain.DocTypeKYC, 0.7, 0.7, 0),
		vectorRecord("slip", 0, domain.DocTypeSalarySlip, 0, 0, 1),
	}))

	n, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	matches, err := vs.Query(ctx, []float32{1, 0, 0}, 2, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "kyc_chunk_0", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	assert.Equal(t, "kyc_chunk_1", matches[1].ID)
	assert.Equal(t, "kyc.pdf", matches[0].Metadata.Filename)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
}

func TestVectorStore_Filter(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	require.NoError(t, vs.Upsert(ctx, []domain.VectorRecord{
		vectorRecord("kyc", 0, domain.DocTypeKYC, 1, 0),
		vectorRecord("slip", 0, domain.DocTypeSalarySlip, 0, 1),
	}))

	matches, err := vs.Query(ctx, []float32{1, 0}, 5, domain.VectorFilter{DocType: domain.DocTypeSalarySlip})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.DocTypeSalarySlip, matches[0].Metadata.DocType)

	none, err := vs.Query(ctx, []float32{1, 0}, 5, domain.VectorFilter{DocType: domain.DocTypeBankStatement})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVectorStore_UpsertReplaces(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	require.NoError(t, vs.Upsert(ctx, []domain.VectorRecord{vectorRecord("d", 0, domain.DocTypeOther, 1, 0)}))
	require.NoError(t, vs.Upsert(ctx, []domain.VectorRecord{vectorRecord("d", 0, domain.DocTypeOther, 0, 1)}))

	n, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	matches, err := vs.Query(ctx, []float32{0, 1}, 1, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
}

func TestVectorStore_DeleteByDocument(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	require.NoError(t, vs.Upsert(ctx, []domain.VectorRecord{
		vectorRecord("a", 0, domain.DocTypeOther, 1, 0),
		vectorRecord("a", 1, domain.DocTypeOther, 1, 1),
		vectorRecord("b", 0, domain.DocTypeOther, 0, 1),
	}))

	require.NoError(t, vs.DeleteByDocument(ctx, "a"))
	require.NoError(t, vs.DeleteByDocument(ctx, "unknown"))

	n, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	require.NoError(t, vs.Upsert(ctx, []domain.VectorRecord{vectorRecord("a", 0, domain.DocTypeOther, 1, 0, 0)}))

	_, err := vs.Query(ctx, []float32{1, 0}, 1, domain.VectorFilter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorStore_RejectsEmptyEmbedding(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	err := vs.Upsert(context.Background(), []domain.VectorRecord{vectorRecord("a", 0, domain.DocTypeOther)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_NonPositiveK(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	matches, err := vs.Query(context.Background(), []float32{1}, 0, domain.VectorFilter{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
