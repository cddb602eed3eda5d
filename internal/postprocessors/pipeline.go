// Package postprocessors turns document text into indexable chunks through
// an ordered chain of processors.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline feeds each processor the previous one's chunks; the first
// receives nil.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline that runs processors in the given order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process never returns blank chunks. Indexes restart at zero with no gaps
// and ids are rebuilt from them, whatever the processors produced.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}
	ctx, span := tracing.StartSpan(ctx, "postprocess", attribute.String("document_id", doc.ID))
	defer span.End()

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		var err error
		if chunks, err = proc.Process(ctx, doc, chunks); err != nil {
			err = fmt.Errorf("processor %s: %w", proc.Name(), err)
			tracing.RecordError(ctx, err)
			return nil, err
		}
		logger.Debug("postprocessor %s produced %d chunks for %s", proc.Name(), len(chunks), doc.ID)
	}

	chunks = renumber(doc.ID, chunks)
	span.SetAttributes(attribute.Int("chunks", len(chunks)))
	return chunks, nil
}

// renumber drops blank chunks in place and numbers the rest from zero under docID.
func renumber(docID string, chunks []domain.Chunk) []domain.Chunk {
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		c.Index = len(out)
		c.DocumentID = docID
		c.ID = domain.ChunkID(docID, c.Index)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Add appends processor to the end of the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
