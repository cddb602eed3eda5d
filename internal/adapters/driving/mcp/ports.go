// Package mcp serves bankdoc over the Model Context Protocol: assistants
// ask questions, ingest text and read documents as resources.
package mcp

import (
	"errors"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// ErrMissingPipelineService is returned by NewServer when Ports has no pipeline.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")

// Ports are the services the tools and resources call.
type Ports struct {
	Pipeline driving.PipelineService

	// Document is optional; without it document resources are not found
	// and entity search is unavailable.
	Document driving.DocumentService
}

// Validate returns an error when a required service is missing.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
