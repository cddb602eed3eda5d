package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/normalisers"
	"github.com/custodia-labs/bankdoc-rag/internal/postprocessors"
)

// --- Fakes ---

// fakeLLM implements driven.LLMService for testing.
type fakeLLM struct {
	mu         sync.Mutex
	answer     string
	pingErr    error
	genErr     error
	pings      int
	gens       int
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gens++
	f.lastPrompt = prompt
	f.lastOpts = opts
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.answer, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

func (f *fakeLLM) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeLLM) Close() error { return nil }

// fakeEmbedder implements driven.EmbeddingService with a configurable failure.
type fakeEmbedder struct {
	*hashing.EmbeddingService
	err    error
	closed bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.EmbeddingService.Embed(ctx, text)
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.EmbeddingService.EmbedBatch(ctx, texts)
}

func (f *fakeEmbedder) Close() error {
	f.closed = true
	return nil
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{EmbeddingService: hashing.NewEmbeddingService(hashing.Config{})}
}

// fakePrompts implements driven.PromptStore for testing.
type fakePrompts struct {
	tmpl string
	err  error
}

func (f *fakePrompts) Load(string) (string, error) { return f.tmpl, f.err }
func (f *fakePrompts) Reload()                     {}

// flakyVectorStore wraps the memory store with injectable failures.
type flakyVectorStore struct {
	*memory.VectorStore
	upsertErr error
	deleteErr error
}

func (s *flakyVectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.VectorStore.Upsert(ctx, records)
}

func (s *flakyVectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.VectorStore.DeleteByDocument(ctx, documentID)
}

// flakyRecordStore wraps the memory store with injectable failures.
type flakyRecordStore struct {
	*memory.RecordStore
	saveEntitiesErr error
	logErr          error
}

func (s *flakyRecordStore) SaveEntities(ctx context.Context, documentID string, entities []domain.Entity) error {
	if s.saveEntitiesErr != nil {
		return s.saveEntitiesErr
	}
	return s.RecordStore.SaveEntities(ctx, documentID, entities)
}

func (s *flakyRecordStore) LogQuery(ctx context.Context, entry *domain.QueryLog) error {
	if s.logErr != nil {
		return s.logErr
	}
	return s.RecordStore.LogQuery(ctx, entry)
}

var errBoom = errors.New("boom")

// --- Fixtures ---

const salarySlipText = `Salary Slip for April 2023.
Employee PAN: ABCPE1234F.
Gross Salary: Rs. 50,000 and Net Salary: Rs. 45,000 credited on 01/04/2023.
Basic pay plus allowances, less deductions.`

const bankStatementText = `Bank Statement for account number 123456789012 at IFSC HDFC0001234.
Opening balance Rs. 10,000 on 01/03/2023. Closing balance Rs. 12,500.
Transaction history shows one credit and one debit.`

type testPipeline struct {
	pipeline *Pipeline
	vectors  *flakyVectorStore
	records  *flakyRecordStore
	embedder *fakeEmbedder
	llm      *fakeLLM
	synth    *AnswerSynthesizer
}

// newTestPipeline wires a pipeline over memory stores. A nil llm means no
// generative backend.
func newTestPipeline(t *testing.T, llm *fakeLLM) *testPipeline {
	t.Helper()

	embedder := newFakeEmbedder()
	var providers *ProviderRegistry
	if llm != nil {
		providers = NewStaticProviderRegistry(embedder, llm)
	} else {
		providers = NewStaticProviderRegistry(embedder, nil)
	}

	vectors := &flakyVectorStore{VectorStore: memory.NewVectorStore()}
	records := &flakyRecordStore{RecordStore: memory.NewRecordStore()}

	chunker, err := postprocessors.NewDefaultPipeline(domain.ChunkingSettings{Size: 500, Overlap: 50})
	require.NoError(t, err)

	synth := NewAnswerSynthesizer(providers, nil)
	index := NewRetrievalIndex(providers, vectors, synth)

	return &testPipeline{
		pipeline: NewPipeline(index, synth, records, chunker, normalisers.NewDefaultRegistry(), PipelineConfig{}),
		vectors:  vectors,
		records:  records,
		embedder: embedder,
		llm:      llm,
		synth:    synth,
	}
}

func chunk(filename string, docType domain.DocumentType, text string, distance float64) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		ID:       domain.ChunkID(filename, 0),
		Text:     text,
		Metadata: domain.RecordMetadata{DocumentID: filename, Filename: filename, DocType: docType},
		Distance: distance,
	}
}
