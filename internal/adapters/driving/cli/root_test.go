package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
	"github.com/custodia-labs/bankdoc-rag/internal/core/services"
	"github.com/custodia-labs/bankdoc-rag/internal/extraction"
)

// fakePipeline returns canned results and records what it was asked to do.
type fakePipeline struct {
	ingested  []driving.IngestRequest
	files     []string
	questions []string
	options   []driving.QueryOptions
	deleted   []string
	deleteErr error
}

func (f *fakePipeline) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.ErrEmptyText
	}
	f.ingested = append(f.ingested, req)
	return &domain.IngestResult{
		DocumentID:   "doc-text",
		Filename:     req.Filename,
		DocType:      domain.DocTypeSalarySlip,
		Entities:     domain.EntityMap{domain.EntityPAN: {"ABCDE1234F"}},
		QualityScore: 85,
		ChunkCount:   1,
	}, nil
}

func (f *fakePipeline) IngestFile(_ context.Context, path string) (*domain.IngestResult, error) {
	if filepath.Ext(path) != ".txt" {
		return nil, domain.ErrUnsupportedType
	}
	f.files = append(f.files, path)
	return &domain.IngestResult{
		DocumentID: "doc-" + filepath.Base(path),
		Filename:   filepath.Base(path),
		DocType:    domain.DocTypeBankStatement,
		Entities:   domain.EntityMap{},
		ChunkCount: 2,
	}, nil
}

func (f *fakePipeline) Query(_ context.Context, question string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	f.questions = append(f.questions, question)
	f.options = append(f.options, opts)
	return &domain.QueryResult{
		Question: question,
		Answer:   "Net salary is Rs. 55,000.",
		Sources: []domain.Source{
			{Filename: "slip.txt", DocType: domain.DocTypeSalarySlip, Relevance: 0.912},
		},
		ChunksRetrieved: 3,
		SearchTimeMS:    1.5,
		TotalTimeMS:     12.25,
	}, nil
}

func (f *fakePipeline) DeleteDocument(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePipeline) Stats(context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{TotalRecords: 42, EmbeddingModel: "hashing-384"}, nil
}

func (f *fakePipeline) RecheckBackend() {}

// fakeDocuments serves a fixed corpus.
type fakeDocuments struct {
	docs     []domain.Document
	entities []domain.Entity
	logs     []domain.QueryLog
}

func (f *fakeDocuments) List(_ context.Context, docType domain.DocumentType) ([]domain.Document, error) {
	var out []domain.Document
	for i := range f.docs {
		if docType == "" || f.docs[i].Type == docType {
			out = append(out, f.docs[i])
		}
	}
	return out, nil
}

func (f *fakeDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocuments) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	doc, err := f.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return []domain.Chunk{{ID: domain.ChunkID(id, 0), DocumentID: id, Text: doc.Text}}, nil
}

func (f *fakeDocuments) Entities(_ context.Context, id string) ([]domain.Entity, error) {
	var out []domain.Entity
	for _, e := range f.entities {
		if e.DocumentID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDocuments) EntityPositions(ctx context.Context, id string) ([]domain.EntityMatch, error) {
	doc, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return extraction.ExtractWithPositions(doc.Text), nil
}

func (f *fakeDocuments) EntitySummary(ctx context.Context, id string) (*domain.EntitySummary, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	summary := &domain.EntitySummary{
		Counts:    map[domain.EntityType]int{},
		Validated: map[domain.EntityType][]domain.ValueCheck{},
	}
	for _, e := range f.entities {
		if e.DocumentID != id {
			continue
		}
		summary.Total++
		summary.Counts[e.Type]++
		if e.Type.HasValidator() {
			summary.Validated[e.Type] = append(summary.Validated[e.Type], domain.ValueCheck{Value: e.Value, Valid: e.Valid})
		}
	}
	return summary, nil
}

func (f *fakeDocuments) SearchEntities(_ context.Context, t domain.EntityType, value string) ([]domain.Entity, error) {
	var out []domain.Entity
	for _, e := range f.entities {
		if t != "" && e.Type != t {
			continue
		}
		if value != "" && !strings.Contains(e.Value, value) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeDocuments) RecentQueries(_ context.Context, limit int) ([]domain.QueryLog, error) {
	if limit > 0 && len(f.logs) > limit {
		return f.logs[:limit], nil
	}
	return f.logs, nil
}

func (f *fakeDocuments) Statistics(context.Context) (*domain.CorpusStatistics, error) {
	byType := map[domain.DocumentType]int{}
	total := 0.0
	for i := range f.docs {
		byType[f.docs[i].Type]++
		total += f.docs[i].QualityScore
	}
	avg := 0.0
	if len(f.docs) > 0 {
		avg = total / float64(len(f.docs))
	}
	return &domain.CorpusStatistics{
		TotalDocuments:      len(f.docs),
		ByType:              byType,
		AverageQualityScore: avg,
		TotalEntities:       len(f.entities),
		TotalQueries:        len(f.logs),
	}, nil
}

var (
	_ driving.PipelineService = (*fakePipeline)(nil)
	_ driving.DocumentService = (*fakeDocuments)(nil)
)

var (
	testPipeline  *fakePipeline
	testDocuments *fakeDocuments
	testSettings  driving.SettingsService
)

func testCorpus() *fakeDocuments {
	uploaded := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &fakeDocuments{
		docs: []domain.Document{
			{
				ID:           "doc-1",
				Filename:     "slip.txt",
				FilePath:     "/data/slip.txt",
				FileSize:     120,
				Type:         domain.DocTypeSalarySlip,
				Status:       domain.DocumentStatusCompleted,
				Text:         "Employee: Ravi\nNet Salary: Rs. 55,000",
				QualityScore: 80,
				Stats:        domain.DocumentStats{Characters: 38, Words: 6, Sentences: 1, Pages: 1},
				UploadedAt:   uploaded,
				ProcessedAt:  uploaded,
			},
			{
				ID:           "doc-2",
				Filename:     "kyc.txt",
				Type:         domain.DocTypeKYC,
				Status:       domain.DocumentStatusCompleted,
				Text:         "PAN: ABCDE1234F",
				QualityScore: 60,
				UploadedAt:   uploaded,
				ProcessedAt:  uploaded,
			},
		},
		entities: []domain.Entity{
			{ID: 1, DocumentID: "doc-1", Type: domain.EntityAmount, Value: "Rs. 55,000", Valid: true, Filename: "slip.txt"},
			{ID: 2, DocumentID: "doc-2", Type: domain.EntityPAN, Value: "ABCDE1234F", Valid: true, Filename: "kyc.txt"},
			{ID: 3, DocumentID: "doc-2", Type: domain.EntityIFSC, Value: "SBIN1234567", Valid: false, Filename: "kyc.txt"},
		},
		logs: []domain.QueryLog{
			{
				ID:             1,
				Question:       "What is the net salary?",
				Answer:         "Rs. 55,000",
				Sources:        []domain.Source{{Filename: "slip.txt", DocType: domain.DocTypeSalarySlip, Relevance: 0.9}},
				ResponseTimeMS: 14.5,
				CreatedAt:      uploaded,
			},
		},
	}
}

// setupTestServices installs fakes for every port and returns a cleanup
// function that restores nil services and default flag values.
func setupTestServices() func() {
	testPipeline = &fakePipeline{}
	testDocuments = testCorpus()
	testSettings = services.NewSettingsService(memory.NewConfigStore(map[string]any{}), nil)
	SetServices(testPipeline, testDocuments, testSettings)

	return func() {
		SetServices(nil, nil, nil)
		resetFlags()
	}
}

// resetFlags restores flag variables, which cobra keeps between Execute calls.
func resetFlags() {
	ingestText, ingestName, ingestJSON = "", "pasted.txt", false
	queryTopK, queryType, queryMaxTokens, queryJSON, queryOutput = 0, "", 0, false, outputText
	documentListType, documentJSON, documentDeleteYes, entityPositions = "", false, false, false
	entitySearchType, entitySearchValue = "", ""
	statsJSON, historyLimit = false, 10
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
