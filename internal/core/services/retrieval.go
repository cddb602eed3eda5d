package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

// embedBatchSize caps how many chunks go to the embedding provider per call.
const embedBatchSize = 64

// GenerativeStatus reports whether a generative backend can be used.
type GenerativeStatus interface {
	// Available reports whether the backend is reachable.
	Available(ctx context.Context) bool

	// ModelName returns the backend model, or "" when unavailable.
	ModelName(ctx context.Context) string
}

// RetrievalIndex embeds chunks into a vector store and answers
// nearest-neighbour queries against it. The same embedding provider is used
// for chunks and questions.
type RetrievalIndex struct {
	providers  *ProviderRegistry
	store      driven.VectorStore
	generative GenerativeStatus
}

// NewRetrievalIndex creates a retrieval index.
// generative is optional and only feeds Stats.
func NewRetrievalIndex(providers *ProviderRegistry, store driven.VectorStore, generative GenerativeStatus) *RetrievalIndex {
	return &RetrievalIndex{
		providers:  providers,
		store:      store,
		generative: generative,
	}
}

// Upsert embeds chunks in batches and stores one record per chunk, keyed by
// its chunk id. meta is copied into every record with the chunk index set.
// Returns the record ids in chunk order.
func (x *RetrievalIndex) Upsert(ctx context.Context, chunks []domain.Chunk, meta domain.RecordMetadata) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if meta.DocumentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	embedder, err := x.providers.Embedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	records := make([]domain.VectorRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vectors), len(batch))
		}

		for i, c := range batch {
			md := meta
			md.ChunkIndex = c.Index
			records = append(records, domain.VectorRecord{
				ID:        domain.ChunkID(meta.DocumentID, c.Index),
				Text:      c.Text,
				Embedding: vectors[i],
				Metadata:  md,
			})
		}
	}

	if err := x.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("store vectors: %w", err)
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	logger.Debug("Indexed %d chunks for %s", len(ids), meta.DocumentID)
	return ids, nil
}

// Search embeds the query and returns up to topK chunks by ascending
// distance. A non-empty docType restricts results to that document type.
func (x *RetrievalIndex) Search(
	ctx context.Context, query string, topK int, docType domain.DocumentType,
) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	ctx, span := tracing.StartSpan(ctx, "retrieval.search",
		attribute.Int("top_k", topK),
		attribute.String("doc_type", docType.String()),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	embedder, err := x.providers.Embedding(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	vector, err := embedder.Embed(ctx, query)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := x.store.Query(ctx, vector, topK, domain.VectorFilter{DocType: docType})
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.RetrievedChunk{
			ID:       m.ID,
			Text:     m.Text,
			Metadata: m.Metadata,
			Distance: m.Distance,
		})
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	logger.Debug("Retrieved %d chunks (top_k=%d, doc_type=%q)", len(results), topK, docType)
	return results, nil
}

// DeleteByDocument removes every vector of a document. Idempotent.
func (x *RetrievalIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := x.store.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// Stats reports the record count and the models in use.
// The generative model is only named when the backend is available.
func (x *RetrievalIndex) Stats(ctx context.Context) (*domain.IndexStats, error) {
	count, err := x.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}

	stats := &domain.IndexStats{TotalRecords: count}

	if embedder, err := x.providers.Embedding(ctx); err == nil {
		stats.EmbeddingModel = embedder.ModelName()
	} else {
		logger.Warn("Embedding provider unavailable: %v", err)
	}

	if x.generative != nil && x.generative.Available(ctx) {
		stats.GenerativeAvailable = true
		stats.GenerativeModel = x.generative.ModelName(ctx)
	}

	return stats, nil
}
