package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// testDSNEnv names a database used for integration tests. Tests that need a
// live server are skipped when it is unset.
const testDSNEnv = "BANKDOC_TEST_POSTGRES_DSN"

func TestNewVectorStore_Validation(t *testing.T) {
	_, err := NewVectorStore(Config{Dimensions: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewVectorStore(Config{DSN: "postgres://localhost/x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewVectorStore_Unreachable(t *testing.T) {
	_, err := NewVectorStore(Config{
		DSN:        "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1",
		Dimensions: 3,
	})
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
}

func TestCheckDimensions(t *testing.T) {
	s := &VectorStore{dimensions: 3}
	assert.NoError(t, s.checkDimensions([]float32{1, 2, 3}))
	assert.ErrorIs(t, s.checkDimensions([]float32{1, 2}), domain.ErrDimensionMismatch)
	assert.ErrorIs(t, s.checkDimensions(nil), domain.ErrInvalidInput)
}

func TestToRow(t *testing.T) {
	row := toRow(domain.VectorRecord{
		ID:        "d_chunk_2",
		Text:      "IFSC HDFC0001234",
		Embedding: []float32{0.1, 0.2},
		Metadata: domain.RecordMetadata{
			DocumentID: "d", Filename: "stmt.pdf", DocType: domain.DocTypeBankStatement, ChunkIndex: 2,
		},
	})
	assert.Equal(t, "d", row.DocumentID)
	assert.Equal(t, "bank_statement", row.DocType)
	assert.Equal(t, []float32{0.1, 0.2}, row.Embedding.Slice())
	assert.Equal(t, TableName, row.TableName())
}

func TestSearchSettings(t *testing.T) {
	tests := []struct {
		name   string
		k      int
		filter domain.VectorFilter
		want   []string
	}{
		{
			name: "small k keeps default ef_search",
			k:    5,
			want: []string{"SET LOCAL hnsw.ef_search = 40"},
		},
		{
			name: "large k raises ef_search",
			k:    200,
			want: []string{"SET LOCAL hnsw.ef_search = 200"},
		},
		{
			name: "ef_search is capped",
			k:    5000,
			want: []string{"SET LOCAL hnsw.ef_search = 1000"},
		},
		{
			name:   "doc type filter ranks exactly",
			k:      5,
			filter: domain.VectorFilter{DocType: domain.DocTypeKYC},
			want:   []string{"SET LOCAL hnsw.ef_search = 40", "SET LOCAL enable_indexscan = off"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, searchSettings(tt.k, tt.filter))
		})
	}
}

func TestVectorStore_Integration(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	s, err := NewVectorStore(Config{DSN: dsn, Dimensions: 2})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.DeleteByDocument(ctx, "it-a"))
	require.NoError(t, s.DeleteByDocument(ctx, "it-b"))

	require.NoError(t, s.Upsert(ctx, []domain.VectorRecord{
		{ID: "it-a_chunk_0", Text: "a", Embedding: []float32{1, 0},
			Metadata: domain.RecordMetadata{DocumentID: "it-a", Filename: "a.txt", DocType: domain.DocTypeKYC}},
		{ID: "it-b_chunk_0", Text: "b", Embedding: []float32{0, 1},
			Metadata: domain.RecordMetadata{DocumentID: "it-b", Filename: "b.txt", DocType: domain.DocTypeSalarySlip}},
	}))

	matches, err := s.Query(ctx, []float32{1, 0}, 2, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "it-a_chunk_0", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)

	filtered, err := s.Query(ctx, []float32{1, 0}, 2, domain.VectorFilter{DocType: domain.DocTypeSalarySlip})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "it-b_chunk_0", filtered[0].ID)

	require.NoError(t, s.DeleteByDocument(ctx, "it-a"))
	require.NoError(t, s.DeleteByDocument(ctx, "it-b"))
}

func TestVectorStore_FilteredSearchFindsMinorityType(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	s, err := NewVectorStore(Config{DSN: dsn, Dimensions: 2})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	cleanup := func() {
		for i := range 40 {
			require.NoError(t, s.DeleteByDocument(ctx, fmt.Sprintf("fs-slip-%d", i)))
		}
		require.NoError(t, s.DeleteByDocument(ctx, "fs-kyc"))
	}
	cleanup()
	defer cleanup()

	// Many salary slips sit next to the query vector; the only KYC chunks are far away.
	records := make([]domain.VectorRecord, 0, 42)
	for i := range 40 {
		id := fmt.Sprintf("fs-slip-%d", i)
		records = append(records, domain.VectorRecord{
			ID: id + "_chunk_0", Text: "net salary", Embedding: []float32{1, float32(i) / 100},
			Metadata: domain.RecordMetadata{DocumentID: id, Filename: id + ".txt", DocType: domain.DocTypeSalarySlip},
		})
	}
	for i := range 2 {
		records = append(records, domain.VectorRecord{
			ID: fmt.Sprintf("fs-kyc_chunk_%d", i), Text: "aadhaar", Embedding: []float32{float32(i) / 10, 1},
			Metadata: domain.RecordMetadata{DocumentID: "fs-kyc", Filename: "kyc.txt", DocType: domain.DocTypeKYC, ChunkIndex: i},
		})
	}
	require.NoError(t, s.Upsert(ctx, records))

	matches, err := s.Query(ctx, []float32{1, 0}, 5, domain.VectorFilter{DocType: domain.DocTypeKYC})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, domain.DocTypeKYC, m.Metadata.DocType)
	}

	unfiltered, err := s.Query(ctx, []float32{1, 0}, 5, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, unfiltered, 5)
	assert.Equal(t, "fs-slip-0_chunk_0", unfiltered[0].ID)
}
