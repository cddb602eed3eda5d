package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to answer from ingested documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default from settings)"`
	DocType  string `json:"doc_type,omitempty" jsonschema:"restrict retrieval to loan_application, kyc_document, bank_statement, salary_slip or other"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer          string         `json:"answer"`
	Sources         []SourceOutput `json:"sources"`
	ChunksRetrieved int            `json:"chunks_retrieved"`
	SearchTimeMS    float64        `json:"search_time_ms"`
	TotalTimeMS     float64        `json:"total_time_ms"`
}

// SourceOutput is one document cited by an answer.
type SourceOutput struct {
	Filename  string  `json:"filename"`
	DocType   string  `json:"doc_type"`
	Relevance float64 `json:"relevance"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Text     string `json:"text" jsonschema:"the document text"`
	Filename string `json:"filename,omitempty" jsonschema:"name recorded for the document (default mcp.txt)"`
}

// IngestTextOutput is the output schema for the ingest_text tool.
type IngestTextOutput struct {
	DocumentID   string              `json:"doc_id"`
	DocType      string              `json:"doc_type"`
	QualityScore float64             `json:"quality_score"`
	ChunkCount   int                 `json:"chunks_created"`
	Entities     map[string][]string `json:"entities"`
}

// StatsInput is the input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool. Corpus is omitted
// when the server has no document service.
type StatsOutput struct {
	TotalChunks    int          `json:"total_chunks"`
	EmbeddingModel string       `json:"embedding_model"`
	LLMAvailable   bool         `json:"llm_available"`
	LLMModel       string       `json:"llm_model,omitempty"`
	Corpus         *CorpusStats `json:"corpus,omitempty"`
}

// CorpusStats aggregates the stored documents, entities and queries.
type CorpusStats struct {
	TotalDocuments      int            `json:"total_documents"`
	ByType              map[string]int `json:"by_type"`
	AverageQualityScore float64        `json:"avg_quality_score"`
	TotalEntities       int            `json:"total_entities"`
	TotalQueries        int            `json:"total_queries"`
}

// SearchEntitiesInput is the input schema for the search_entities tool.
type SearchEntitiesInput struct {
	EntityType string `json:"entity_type,omitempty" jsonschema:"entity type such as pan_number, ifsc_code or amount"`
	Value      string `json:"value,omitempty" jsonschema:"substring of the entity value"`
}

// SearchEntitiesOutput is the output schema for the search_entities tool.
type SearchEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
	Count    int            `json:"count"`
}

// EntityOutput is one entity occurrence.
type EntityOutput struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Type       string `json:"type"`
	Value      string `json:"value"`
	Valid      bool   `json:"valid"`
}

const defaultIngestFilename = "mcp.txt"

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question using only the ingested banking documents",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Ingest a banking document given as plain text",
	}, s.handleIngestText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report index size, corpus totals and whether the generative backend is available",
	}, s.handleStats)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search_entities",
			Description: "Find extracted entities (PAN, IFSC, amounts, ...) across documents",
		}, s.handleSearchEntities)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	docType, err := domain.ParseDocumentType(input.DocType)
	if err != nil {
		return nil, QueryOutput{}, fmt.Errorf("unknown doc_type %q: %w", input.DocType, err)
	}

	result, err := s.ports.Pipeline.Query(ctx, input.Question, driving.QueryOptions{
		TopK:    input.TopK,
		DocType: docType,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Answer:          result.Answer,
		Sources:         make([]SourceOutput, len(result.Sources)),
		ChunksRetrieved: result.ChunksRetrieved,
		SearchTimeMS:    result.SearchTimeMS,
		TotalTimeMS:     result.TotalTimeMS,
	}
	for i, src := range result.Sources {
		output.Sources[i] = SourceOutput{
			Filename:  src.Filename,
			DocType:   src.DocType.String(),
			Relevance: src.Relevance,
		}
	}

	return nil, output, nil
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	filename := input.Filename
	if filename == "" {
		filename = defaultIngestFilename
	}

	result, err := s.ports.Pipeline.Ingest(ctx, driving.IngestRequest{Text: input.Text, Filename: filename})
	if err != nil {
		return nil, IngestTextOutput{}, err
	}

	entities := make(map[string][]string, len(result.Entities))
	for t, values := range result.Entities {
		entities[t.String()] = values
	}

	return nil, IngestTextOutput{
		DocumentID:   result.DocumentID,
		DocType:      result.DocType.String(),
		QualityScore: result.QualityScore,
		ChunkCount:   result.ChunkCount,
		Entities:     entities,
	}, nil
}

// handleStats handles the stats tool invocation. The generative backend is
// pinged afresh so a server that outlives a backend restart reports it.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	s.ports.Pipeline.RecheckBackend()

	stats, err := s.ports.Pipeline.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		TotalChunks:    stats.TotalRecords,
		EmbeddingModel: stats.EmbeddingModel,
		LLMAvailable:   stats.GenerativeAvailable,
		LLMModel:       stats.GenerativeModel,
	}

	if s.ports.Document != nil {
		corpus, err := s.ports.Document.Statistics(ctx)
		if err != nil {
			return nil, StatsOutput{}, fmt.Errorf("reading corpus statistics: %w", err)
		}
		output.Corpus = corpusStats(corpus)
	}

	return nil, output, nil
}

func corpusStats(c *domain.CorpusStatistics) *CorpusStats {
	byType := make(map[string]int, len(c.ByType))
	for t, n := range c.ByType {
		byType[t.String()] = n
	}
	return &CorpusStats{
		TotalDocuments:      c.TotalDocuments,
		ByType:              byType,
		AverageQualityScore: c.AverageQualityScore,
		TotalEntities:       c.TotalEntities,
		TotalQueries:        c.TotalQueries,
	}
}

// handleSearchEntities handles the search_entities tool invocation.
func (s *Server) handleSearchEntities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchEntitiesInput,
) (*mcp.CallToolResult, SearchEntitiesOutput, error) {
	if s.ports.Document == nil {
		return nil, SearchEntitiesOutput{}, errors.New("document service not configured")
	}

	entities, err := s.ports.Document.SearchEntities(ctx, domain.EntityType(input.EntityType), input.Value)
	if err != nil {
		return nil, SearchEntitiesOutput{}, err
	}

	output := SearchEntitiesOutput{
		Entities: make([]EntityOutput, len(entities)),
		Count:    len(entities),
	}
	for i, e := range entities {
		output.Entities[i] = EntityOutput{
			DocumentID: e.DocumentID,
			Filename:   e.Filename,
			Type:       e.Type.String(),
			Value:      e.Value,
			Valid:      e.Valid,
		}
	}

	return nil, output, nil
}
