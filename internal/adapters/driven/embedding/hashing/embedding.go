// Package hashing provides an in-process embedding service based on
// feature hashing. It needs no model download or network access, so the
// pipeline works offline; semantic quality is lexical rather than learned.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-384"
	DefaultDimensions = 384
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

// Config holds configuration for the hashing embedder.
type Config struct {
	// Dimensions is the number of hash buckets (default: 384).
	Dimensions int

	// Model is the reported model name (default: hashing-384).
	Model string
}

// EmbeddingService hashes word unigrams and bigrams into a fixed-size,
// L2-normalised vector. It is stateless and safe for concurrent use.
type EmbeddingService struct {
	dimensions int
	model      string
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &EmbeddingService{
		dimensions: cfg.Dimensions,
		model:      cfg.Model,
		stopwords:  defaultStopwords(),
	}
}

// Embed returns the hashed feature vector for text.
// Text with no usable tokens yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch embeds each text independently.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	acc := make([]float64, s.dimensions)
	tokens := s.tokenize(text)

	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}

	for feature, n := range counts {
		bucket, sign := s.hash(feature)
		acc[bucket] += sign * (1 + math.Log(float64(n)))
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

// hash maps a feature to a bucket and a sign so that collisions tend to cancel.
func (s *EmbeddingService) hash(feature string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(s.dimensions)), sign
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the reported model name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds; the embedder has no external dependency.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "have", "i", "in", "is", "it", "its", "of", "on", "or",
		"that", "the", "this", "to", "was", "were", "what", "when", "which",
		"who", "will", "with", "my", "me", "do", "does", "how", "much",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
