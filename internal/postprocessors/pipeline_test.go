package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/postprocessors/chunker"
)

// mockProcessor is a test processor that returns predefined chunks.
type mockProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), &domain.Document{ID: "d", Text: "x"})
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_Process_RenumbersAndDropsBlank(t *testing.T) {
	p := NewPipeline(&mockProcessor{name: "m", chunks: []domain.Chunk{
		{Text: "first", Index: 7},
		{Text: "   "},
		{Text: "second", Index: 9},
	}})

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc"})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "doc_chunk_0", chunks[0].ID)
	assert.Equal(t, "second", chunks[1].Text)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "doc_chunk_1", chunks[1].ID)
	assert.Equal(t, "doc", chunks[1].DocumentID)
}

func TestPipeline_Process_Error(t *testing.T) {
	p := NewPipeline(&mockProcessor{name: "broken", err: errors.New("boom")})

	_, err := p.Process(context.Background(), &domain.Document{ID: "d"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor broken")
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(chunker.New())
	assert.Equal(t, 1, p.Len())
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	assert.True(t, r.Has("chunker"))
	assert.False(t, r.Has("stemmer"))
	assert.Equal(t, []string{"chunker"}, r.Names())

	_, err := r.Build("stemmer", nil)
	assert.ErrorIs(t, err, ErrUnknownProcessor)

	proc, err := r.Build("chunker", map[string]any{"chunk_size": int64(64), "overlap": float64(8)})
	require.NoError(t, err)
	c, ok := proc.(*chunker.Processor)
	require.True(t, ok)
	assert.Equal(t, 64, c.ChunkSize())
	assert.Equal(t, 8, c.Overlap())
}

func TestBuildChunker_IgnoresUnusableValues(t *testing.T) {
	for _, cfg := range []map[string]any{
		nil,
		{"chunk_size": 0, "overlap": -1},
		{"chunk_size": "big", "overlap": 2.5},
	} {
		proc, err := buildChunker(cfg)
		require.NoError(t, err)
		c := proc.(*chunker.Processor)
		assert.Equal(t, chunker.DefaultChunkSize, c.ChunkSize(), "cfg %v", cfg)
		assert.Equal(t, chunker.DefaultChunkOverlap, c.Overlap(), "cfg %v", cfg)
	}
}

func TestRegistry_BuildPipelineStopsAtUnknownStage(t *testing.T) {
	_, err := NewDefaultRegistry().BuildPipeline(Stage{Name: "chunker"}, Stage{Name: "ocr"})
	require.ErrorIs(t, err, ErrUnknownProcessor)
	assert.Contains(t, err.Error(), "ocr")
}

func TestNewDefaultPipeline(t *testing.T) {
	p, err := NewDefaultPipeline(domain.ChunkingSettings{Size: 100, Overlap: 10})
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	chunks, err := p.Process(context.Background(), &domain.Document{
		ID:   "doc",
		Text: strings.Repeat("abcdefghij", 30),
	})
	require.NoError(t, err)
	assert.Len(t, chunks, 4)
}
