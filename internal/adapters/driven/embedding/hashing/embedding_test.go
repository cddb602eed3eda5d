package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, 384, s.Dimensions())
	assert.Equal(t, "hashing-384", s.ModelName())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestEmbed_Deterministic(t *testing.T) {
	s := NewEmbeddingService(Config{})
	a, err := s.Embed(context.Background(), "Net salary credited")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "Net salary credited")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 384)
}

func TestEmbed_UnitNorm(t *testing.T) {
	s := NewEmbeddingService(Config{})
	v, err := s.Embed(context.Background(), "IFSC code HDFC0001234 for account 50100123456789")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-5)
}

func TestEmbed_EmptyIsZero(t *testing.T) {
	s := NewEmbeddingService(Config{Dimensions: 16})
	v, err := s.Embed(context.Background(), "the of and")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestEmbed_SimilarTextsScoreHigher(t *testing.T) {
	s := NewEmbeddingService(Config{})
	ctx := context.Background()

	query, _ := s.Embed(ctx, "what is the net salary")
	slip, _ := s.Embed(ctx, "Salary slip for March. Net salary Rs. 50,000 after deductions.")
	kyc, _ := s.Embed(ctx, "Aadhaar card verification and passport identity proof")

	assert.Greater(t, dot(query, slip), dot(query, kyc))
}

func TestEmbedBatch(t *testing.T) {
	s := NewEmbeddingService(Config{})
	out, err := s.EmbedBatch(context.Background(), []string{"loan amount", "kyc"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	single, _ := s.Embed(context.Background(), "kyc")
	assert.Equal(t, single, out[1])
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbeddingService(Config{}).EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
