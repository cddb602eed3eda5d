package domain

import (
	"fmt"
	"time"
)

// DocumentStatus tracks where a document is in the ingest lifecycle.
type DocumentStatus string

// Document statuses.
const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
)

// Document is an ingested banking document with its analysis results.
type Document struct {
	// ID is the unique identifier assigned at ingest.
	ID string

	// Filename is the display name, usually the file's base name.
	Filename string

	// FilePath is where the original file lived, if ingested from disk.
	FilePath string

	// FileSize is the original file size in bytes.
	FileSize int64

	// Type is the classified document type.
	Type DocumentType

	// Status is the lifecycle status.
	Status DocumentStatus

	// Text is the full extracted text.
	Text string

	// QualityScore is the completeness score in [0, 100].
	QualityScore float64

	// Stats holds text statistics computed at ingest.
	Stats DocumentStats

	// UploadedAt is when the document was received.
	UploadedAt time.Time

	// ProcessedAt is when analysis finished.
	ProcessedAt time.Time
}

// DocumentStats holds simple text statistics.
type DocumentStats struct {
	Characters int `json:"total_characters"`
	Words      int `json:"total_words"`
	Sentences  int `json:"total_sentences"`
	Pages      int `json:"pages"`
}

// Chunk is a retrievable slice of a document's text.
type Chunk struct {
	// ID is "{documentID}_chunk_{index}".
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the zero-based position within the document.
	Index int

	// Text is the chunk content.
	Text string
}

// ChunkID returns the stable vector record id for a document chunk.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}
