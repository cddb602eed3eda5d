package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/bankdoc-rag/internal/analysis"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
	"github.com/custodia-labs/bankdoc-rag/internal/extraction"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

// Ensure Pipeline implements the interface.
var _ driving.PipelineService = (*Pipeline)(nil)

// PipelineConfig holds query defaults.
type PipelineConfig struct {
	// TopK is the number of chunks retrieved when a query does not say.
	TopK int

	// MaxTokens bounds answers when a query does not say.
	MaxTokens int
}

// Pipeline composes analysis, chunking, retrieval and synthesis into the
// ingest and query paths.
type Pipeline struct {
	index       *RetrievalIndex
	synthesizer *AnswerSynthesizer
	records     driven.RecordStore
	chunker     driven.PostProcessorPipeline
	normalisers driven.NormaliserRegistry
	cfg         PipelineConfig
}

// NewPipeline creates a pipeline.
// normalisers may be nil if only raw text is ingested.
func NewPipeline(
	index *RetrievalIndex,
	synthesizer *AnswerSynthesizer,
	records driven.RecordStore,
	chunker driven.PostProcessorPipeline,
	normalisers driven.NormaliserRegistry,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = domain.DefaultMaxTokens
	}
	return &Pipeline{
		index:       index,
		synthesizer: synthesizer,
		records:     records,
		chunker:     chunker,
		normalisers: normalisers,
		cfg:         cfg,
	}
}

// Ingest classifies, extracts, scores and chunks text, indexes the chunks and
// persists the document. Vectors are written before records; if persisting
// records fails the vectors and any partial rows are removed again.
func (p *Pipeline) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyText, req.Filename)
	}

	ctx, span := tracing.StartSpan(ctx, "pipeline.ingest",
		attribute.String("filename", req.Filename),
		attribute.Int("text_length", len(text)),
	)
	defer span.End()
	defer logger.Timed("ingest " + req.Filename)()

	doc := &domain.Document{
		ID:         uuid.NewString(),
		Filename:   req.Filename,
		FilePath:   req.FilePath,
		FileSize:   req.FileSize,
		Status:     domain.DocumentStatusProcessing,
		Text:       text,
		UploadedAt: time.Now(),
	}

	doc.Type = analysis.Classify(text)
	entities := extraction.Extract(text)
	doc.QualityScore = extraction.ScoreEntities(entities, doc.Type)
	doc.Stats = analysis.Stats(text)
	logger.Debug("Document %s: type=%s entities=%d score=%.1f",
		doc.ID, doc.Type, entities.Total(), doc.QualityScore)

	chunks, err := p.chunker.Process(ctx, doc)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: chunk text: %w", domain.ErrIngestFailed, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyText, req.Filename)
	}

	meta := domain.RecordMetadata{
		DocumentID:   doc.ID,
		Filename:     doc.Filename,
		DocType:      doc.Type,
		QualityScore: doc.QualityScore,
	}
	if _, err := p.index.Upsert(ctx, chunks, meta); err != nil {
		tracing.RecordError(ctx, err)
		p.compensate(ctx, doc.ID, false)
		return nil, fmt.Errorf("%w: index chunks: %w", domain.ErrIngestFailed, err)
	}

	doc.Status = domain.DocumentStatusCompleted
	doc.ProcessedAt = time.Now()

	if err := p.persist(ctx, doc, entities, chunks); err != nil {
		tracing.RecordError(ctx, err)
		p.compensate(ctx, doc.ID, true)
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestFailed, err)
	}

	span.SetAttributes(
		attribute.String("doc_id", doc.ID),
		attribute.String("doc_type", doc.Type.String()),
		attribute.Int("chunks", len(chunks)),
	)
	logger.Info("Ingested %s as %s (%d chunks)", doc.Filename, doc.Type, len(chunks))

	return &domain.IngestResult{
		DocumentID:   doc.ID,
		Filename:     doc.Filename,
		DocType:      doc.Type,
		Entities:     entities,
		QualityScore: doc.QualityScore,
		Stats:        doc.Stats,
		ChunkCount:   len(chunks),
	}, nil
}

func (p *Pipeline) persist(ctx context.Context, doc *domain.Document, entities domain.EntityMap, chunks []domain.Chunk) error {
	if err := p.records.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := p.records.SaveEntities(ctx, doc.ID, extraction.ToEntities(doc.ID, entities)); err != nil {
		return fmt.Errorf("save entities: %w", err)
	}
	if err := p.records.SaveChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

// compensate removes whatever a failed ingest wrote. It runs even if ctx
// was cancelled.
func (p *Pipeline) compensate(ctx context.Context, documentID string, records bool) {
	ctx = context.WithoutCancel(ctx)

	if err := p.index.DeleteByDocument(ctx, documentID); err != nil {
		logger.Warn("Cleanup of vectors for %s failed: %v", documentID, err)
	}
	if !records {
		return
	}
	if err := p.records.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Cleanup of records for %s failed: %v", documentID, err)
	}
}

// IngestFile extracts text from the file at path and ingests it under the
// file's base name.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	if p.normalisers == nil {
		return nil, fmt.Errorf("%w: no text extractors configured", domain.ErrUnsupportedType)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw := &domain.RawDocument{URI: absPath, Content: content}
	result, err := p.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", raw.Name(), err)
	}
	logger.Debug("Extracted %d bytes of %s text from %s", len(result.Text), result.Format, raw.Name())

	return p.Ingest(ctx, driving.IngestRequest{
		Text:     result.Text,
		Filename: raw.Name(),
		FilePath: absPath,
		FileSize: info.Size(),
	})
}

// Query retrieves chunks for question and synthesises an answer.
// Retrieval failures degrade to an empty context and generation failures to
// the excerpt fallback, so only invalid options return an error.
func (p *Pipeline) Query(ctx context.Context, question string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	logger.Section("Query")

	if opts.DocType != "" && !opts.DocType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, opts.DocType)
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = p.cfg.TopK
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}

	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "pipeline.query",
		attribute.Int("top_k", topK),
		attribute.String("doc_type", opts.DocType.String()),
	)
	defer span.End()

	question = strings.TrimSpace(question)
	logger.Debug("Question: %q (top_k=%d, doc_type=%q)", question, topK, opts.DocType)

	var chunks []domain.RetrievedChunk
	if question != "" {
		var err error
		chunks, err = p.index.Search(ctx, question, topK, opts.DocType)
		if err != nil {
			logger.Warn("Search failed, answering without context: %v", err)
			tracing.RecordError(ctx, err)
			chunks = nil
		}
	}
	searchElapsed := time.Since(start)

	answer := p.synthesizer.Generate(ctx, question, chunks, maxTokens)
	totalElapsed := time.Since(start)

	result := &domain.QueryResult{
		Question:        question,
		Answer:          answer,
		Sources:         BuildSources(chunks),
		ChunksRetrieved: len(chunks),
		SearchTimeMS:    milliseconds(searchElapsed),
		TotalTimeMS:     milliseconds(totalElapsed),
	}

	span.SetAttributes(
		attribute.Int("chunks_retrieved", result.ChunksRetrieved),
		attribute.Int("sources", len(result.Sources)),
	)

	if question != "" {
		p.logQuery(ctx, result)
	}
	return result, nil
}

func (p *Pipeline) logQuery(ctx context.Context, result *domain.QueryResult) {
	entry := &domain.QueryLog{
		Question:       result.Question,
		Answer:         result.Answer,
		Sources:        result.Sources,
		ResponseTimeMS: result.TotalTimeMS,
		CreatedAt:      time.Now(),
	}
	if err := p.records.LogQuery(ctx, entry); err != nil {
		logger.Warn("Failed to log query: %v", err)
	}
}

// BuildSources returns one source per distinct filename, keeping the first
// (best ranked) chunk's relevance rounded to three decimals.
func BuildSources(chunks []domain.RetrievedChunk) []domain.Source {
	sources := make([]domain.Source, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		name := filename(c)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, domain.Source{
			Filename:  name,
			DocType:   c.Metadata.DocType,
			Relevance: math.Round(c.Relevance()*1000) / 1000,
		})
	}
	return sources
}

func milliseconds(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Microsecond)) / 1000
}

// DeleteDocument removes a document's vectors and records. The record
// deletion is attempted even when vector deletion fails; both errors are
// reported.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	vecErr := p.index.DeleteByDocument(ctx, documentID)
	if vecErr != nil {
		logger.Warn("Failed to delete vectors for %s: %v", documentID, vecErr)
	}

	recErr := p.records.DeleteDocument(ctx, documentID)
	if recErr != nil {
		recErr = fmt.Errorf("delete records: %w", recErr)
	}

	return errors.Join(vecErr, recErr)
}

// Stats describes the retrieval index and generative backend.
func (p *Pipeline) Stats(ctx context.Context) (*domain.IndexStats, error) {
	return p.index.Stats(ctx)
}

// RecheckBackend makes the next Query or Stats ping the generative backend
// again, picking up one that started after the first check.
func (p *Pipeline) RecheckBackend() {
	if p.synthesizer != nil {
		p.synthesizer.Invalidate()
	}
}
