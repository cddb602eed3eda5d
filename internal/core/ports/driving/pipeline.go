package driving

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// PipelineService ingests documents and answers questions over them.
type PipelineService interface {
	// Ingest analyses text, indexes its chunks and persists the document.
	// Either everything is stored or nothing is.
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestResult, error)

	// IngestFile extracts text from a file on disk, then ingests it.
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)

	// Query retrieves relevant chunks and synthesises an answer.
	// Retrieval and generation failures degrade the answer instead of
	// returning an error.
	Query(ctx context.Context, question string, opts QueryOptions) (*domain.QueryResult, error)

	// DeleteDocument removes a document's vectors and records.
	// Both deletions are attempted even if one fails.
	DeleteDocument(ctx context.Context, documentID string) error

	// Stats describes the retrieval index and generative backend.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// RecheckBackend forgets the cached generative availability so the next
	// Query or Stats pings the backend again.
	RecheckBackend()
}

// IngestRequest is raw text with its file details.
type IngestRequest struct {
	// Text is the extracted document text.
	Text string

	// Filename is the display name stored with every chunk.
	Filename string

	// FilePath is the original location, if any.
	FilePath string

	// FileSize is the original size in bytes.
	FileSize int64
}

// QueryOptions configures a query.
type QueryOptions struct {
	// TopK is the number of chunks to retrieve. Zero uses the configured default.
	TopK int

	// DocType restricts retrieval to one document type. Empty means all types.
	DocType domain.DocumentType

	// MaxTokens bounds the generated answer. Zero uses the configured default.
	MaxTokens int
}
