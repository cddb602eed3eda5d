package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 50, p.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(200), WithOverlap(20))
		assert.Equal(t, 200, p.ChunkSize())
		assert.Equal(t, 20, p.Overlap())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", New().Name())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a \n\t b\r\n\nc  "))
	assert.Equal(t, "", Normalize(" \n\t "))
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("", 100, 10))
	assert.Empty(t, Split("   \n\t  ", 100, 10))
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	chunks := Split("Loan  amount:\n Rs. 5,00,000.", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Loan amount: Rs. 5,00,000.", chunks[0])
}

func TestSplit_ExactSizeIsSingleChunk(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := Split(text, 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_HardBoundaries(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30)

	chunks := Split(text, 100, 10)

	require.Len(t, chunks, 4)
	assert.Equal(t, text[0:100], chunks[0])
	assert.Equal(t, text[90:190], chunks[1])
	assert.Equal(t, text[180:280], chunks[2])
	assert.Equal(t, text[270:300], chunks[3])
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("a", 79) + "." + strings.Repeat("b", 100)

	chunks := Split(text, 100, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:80], chunks[0])
	assert.True(t, strings.HasSuffix(chunks[0], "."))
	assert.Equal(t, text[70:170], chunks[1])
	assert.Equal(t, text[160:180], chunks[2])
}

func TestSplit_IgnoresTerminatorBeforeMidpoint(t *testing.T) {
	text := strings.Repeat("a", 20) + "." + strings.Repeat("b", 150)

	chunks := Split(text, 100, 0)

	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], 100)
}

func TestSplit_ChunksNeverExceedMaxSize(t *testing.T) {
	text := strings.Repeat("The borrower agreed to the terms. ", 60)

	for _, c := range Split(text, 120, 30) {
		assert.LessOrEqual(t, len([]rune(c)), 120)
		assert.NotEmpty(t, c)
	}
}

func TestSplit_OverlapNotLessThanSizeTerminates(t *testing.T) {
	text := strings.Repeat("z", 30)

	chunks := Split(text, 10, 20)

	// Each window advances by exactly one character.
	assert.Len(t, chunks, 21)
	assert.Equal(t, text[20:30], chunks[len(chunks)-1])
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("₹", 10)

	chunks := Split(text, 5, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("₹", 5), chunks[0])
	assert.Equal(t, strings.Repeat("₹", 5), chunks[1])
}

func TestSplit_StartsStrictlyIncrease(t *testing.T) {
	text := strings.Repeat("Salary credited on 01/04/2023! Net pay Rs. 50,000? ", 40)
	normalized := Normalize(text)

	chunks := Split(text, 90, 25)

	prev := -1
	offset := 0
	for _, c := range chunks {
		idx := strings.Index(normalized[offset:], c)
		require.GreaterOrEqual(t, idx, 0)
		start := offset + idx
		assert.Greater(t, start, prev)
		prev = start
		offset = start + 1
	}
}

func TestProcessor_Process(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(10))
	doc := &domain.Document{
		ID:   "doc-1",
		Text: strings.Repeat("abcdefghij", 30),
	}

	chunks, err := p.Process(context.Background(), doc, nil)

	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, domain.ChunkID("doc-1", i), c.ID)
	}
}

func TestProcessor_Process_EmptyText(t *testing.T) {
	chunks, err := New().Process(context.Background(), &domain.Document{ID: "d"}, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, &domain.Document{ID: "d", Text: "hello"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
