// Package tui is the interactive terminal front end: a menu over ask,
// documents, document details and statistics views.
package tui

import (
	"errors"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// ErrMissingPipelineService is returned by NewApp when Ports has no pipeline.
var ErrMissingPipelineService = errors.New("tui: pipeline service is required")

// Ports are the services the views call.
type Ports struct {
	Pipeline driving.PipelineService

	// Document is optional; without it the menu offers only Ask and Help.
	Document driving.DocumentService
}

// NewPorts bundles the services the TUI drives.
func NewPorts(pipeline driving.PipelineService, document driving.DocumentService) *Ports {
	return &Ports{Pipeline: pipeline, Document: document}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
