// Package driven lists what the core needs from infrastructure.
//
// Ingest and query cannot run without an EmbeddingService, a VectorStore,
// a RecordStore, the normaliser registry and a PostProcessor. LLMService
// may be nil; answers then list the retrieved excerpts instead.
//
// Only domain may be imported here.
package driven
