package driven

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// Normaliser turns the bytes of one file format into plain text.
type Normaliser interface {
	// SupportedExtensions returns the lower-case file extensions handled, with the dot.
	SupportedExtensions() []string

	// Normalise extracts text from a raw file.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Text is the extracted text, trimmed.
	Text string

	// Format names the front-end that produced the text (txt, docx, pdf).
	Format string
}
