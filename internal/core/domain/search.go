package domain

import "time"

// RecordMetadata is stored alongside every vector record.
type RecordMetadata struct {
	DocumentID   string       `json:"document_id" yaml:"document_id"`
	Filename     string       `json:"filename" yaml:"filename"`
	DocType      DocumentType `json:"doc_type" yaml:"doc_type"`
	QualityScore float64      `json:"quality_score" yaml:"quality_score"`
	ChunkIndex   int          `json:"chunk_index" yaml:"chunk_index"`
}

// VectorRecord is one chunk's embedding plus its text and metadata.
type VectorRecord struct {
	// ID is ChunkID(Metadata.DocumentID, Metadata.ChunkIndex).
	ID string

	// Text is the chunk content.
	Text string

	// Embedding is the chunk vector.
	Embedding []float32

	// Metadata is merged into every record of a document.
	Metadata RecordMetadata
}

// VectorFilter restricts a nearest-neighbour query by metadata equality.
// Zero-valued fields do not filter.
type VectorFilter struct {
	DocType DocumentType
}

// VectorMatch is a vector record returned from a nearest-neighbour query.
type VectorMatch struct {
	ID       string
	Text     string
	Metadata RecordMetadata

	// Distance is the cosine distance, lower is more similar.
	Distance float64
}

// RetrievedChunk is a chunk returned from retrieval for answer synthesis.
type RetrievedChunk struct {
	ID       string         `json:"id" yaml:"id"`
	Text     string         `json:"text" yaml:"text"`
	Metadata RecordMetadata `json:"metadata" yaml:"metadata"`
	Distance float64        `json:"distance" yaml:"distance"`
}

// Relevance returns 1 - distance.
func (c RetrievedChunk) Relevance() float64 {
	return 1 - c.Distance
}

// Source is one distinct document cited in a query result.
type Source struct {
	Filename  string       `json:"filename" yaml:"filename"`
	DocType   DocumentType `json:"doc_type" yaml:"doc_type"`
	Relevance float64      `json:"relevance" yaml:"relevance"`
}

// QueryResult is a synthesised answer with its sources and timings.
type QueryResult struct {
	Question        string   `json:"question" yaml:"question"`
	Answer          string   `json:"answer" yaml:"answer"`
	Sources         []Source `json:"sources" yaml:"sources"`
	ChunksRetrieved int      `json:"chunks_retrieved" yaml:"chunks_retrieved"`
	SearchTimeMS    float64  `json:"search_time_ms" yaml:"search_time_ms"`
	TotalTimeMS     float64  `json:"total_time_ms" yaml:"total_time_ms"`
}

// IngestResult summarises a successful ingest.
type IngestResult struct {
	DocumentID   string        `json:"doc_id"`
	Filename     string        `json:"filename"`
	DocType      DocumentType  `json:"doc_type"`
	Entities     EntityMap     `json:"entities"`
	QualityScore float64       `json:"quality_score"`
	Stats        DocumentStats `json:"stats"`
	ChunkCount   int           `json:"chunks_created"`
}

// IndexStats describes the retrieval index and its capabilities.
type IndexStats struct {
	TotalRecords        int    `json:"total_chunks"`
	EmbeddingModel      string `json:"embedding_model"`
	GenerativeAvailable bool   `json:"llm_available"`
	GenerativeModel     string `json:"llm_model,omitempty"`
}

// CorpusStatistics aggregates the record store.
type CorpusStatistics struct {
	TotalDocuments      int                  `json:"total_documents"`
	ByType              map[DocumentType]int `json:"by_type"`
	AverageQualityScore float64              `json:"avg_quality_score"`
	TotalEntities       int                  `json:"total_entities"`
	TotalQueries        int                  `json:"total_queries"`
}

// QueryLog is a persisted record of an answered query.
type QueryLog struct {
	ID             int64
	Question       string
	Answer         string
	Sources        []Source
	ResponseTimeMS float64
	CreatedAt      time.Time
}
