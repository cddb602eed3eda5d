package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme    = "bankdoc://"
	documentsURI = uriScheme + "documents"
	statsURI     = uriScheme + "stats"

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "All ingested documents with their type and quality score",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "index-stats",
		Description: "Chunk count and the embedding and LLM models in use",
		MIMEType:    mimeJSON,
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}",
		Name:        "document-content",
		Description: "Extracted text of a specific document",
		MIMEType:    mimeText,
	}, s.handleDocumentContentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}/entities",
		Name:        "document-entities",
		Description: "Entity counts and PAN/Aadhaar/IFSC validation for a document",
		MIMEType:    mimeJSON,
	}, s.handleDocumentEntitiesResource)
}

type documentInfo struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	DocType      string    `json:"doc_type"`
	QualityScore float64   `json:"quality_score"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// handleDocumentsResource lists documents without their text. With no
// document service the list is empty rather than an error.
func (s *Server) handleDocumentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	infos := []documentInfo{}
	if s.ports.Document != nil {
		docs, err := s.ports.Document.List(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		for _, d := range docs {
			infos = append(infos, documentInfo{
				ID:           d.ID,
				Filename:     d.Filename,
				DocType:      d.Type.String(),
				QualityScore: d.QualityScore,
				UploadedAt:   d.UploadedAt,
			})
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Pipeline.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

func (s *Server) handleDocumentContentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, sub := parseDocumentURI(req.Params.URI)
	if s.ports.Document == nil || id == "" || sub != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting document content: %w", err)
	}
	return contents(req.Params.URI, mimeText, doc.Text), nil
}

func (s *Server) handleDocumentEntitiesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, sub := parseDocumentURI(req.Params.URI)
	if s.ports.Document == nil || id == "" || sub != "entities" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	summary, err := s.ports.Document.EntitySummary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("summarising entities: %w", err)
	}
	return jsonResource(req.Params.URI, summary)
}

// parseDocumentURI splits bankdoc://documents/{id}[/{sub}]. id is empty
// when uri is not under documents or nests deeper than one level.
func parseDocumentURI(uri string) (id, sub string) {
	rest, ok := strings.CutPrefix(uri, documentsURI+"/")
	if !ok {
		return "", ""
	}
	id, sub, _ = strings.Cut(rest, "/")
	if strings.Contains(sub, "/") {
		return "", ""
	}
	return id, sub
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return contents(uri, mimeJSON, string(data)), nil
}

func contents(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}
}
