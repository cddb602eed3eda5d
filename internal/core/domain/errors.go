package domain

import "errors"

// Sentinels callers match with errors.Is. Adapters wrap them with context.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyText is returned when normalising leaves nothing to analyse.
	ErrEmptyText = errors.New("document text is empty")

	// ErrUnsupportedType covers unknown file extensions and providers.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable makes a query fall back to listing excerpts.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	ErrEmbeddingUnavailable   = errors.New("embedding service unavailable")
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	ErrDimensionMismatch      = errors.New("vector dimension mismatch")

	// ErrIngestFailed wraps the cause of an ingest that was rolled back.
	ErrIngestFailed = errors.New("ingest failed")
)
