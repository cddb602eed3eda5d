package driven

import (
	"context"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// NormaliserRegistry selects a normaliser by file extension.
type NormaliserRegistry interface {
	// Normalise extracts text using the normaliser registered for raw's extension.
	// Returns ErrUnsupportedType when no normaliser handles it.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser for each of its extensions.
	Register(normaliser Normaliser)

	// SupportedExtensions returns every registered extension, sorted.
	SupportedExtensions() []string
}
