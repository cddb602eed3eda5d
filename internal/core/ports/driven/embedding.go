package driven

import "context"

// EmbeddingService turns text into vectors. Chunks and questions must go
// through the same service or similarity scores are meaningless.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions may be zero until the first vector has been produced.
	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request that proves the backend answers.
	Ping(ctx context.Context) error
	Close() error
}
