package normalisers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/normalisers/docx"
	"github.com/custodia-labs/bankdoc-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/bankdoc-rag/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to a normaliser by file extension.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]driven.Normaliser)}
}

// NewDefaultRegistry returns a registry with the txt, docx and pdf front-ends.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser for each of its extensions.
// A later registration replaces an earlier one for the same extension.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		r.byExt[ext] = n
	}
}

// Normalise extracts text using the normaliser registered for raw's extension.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	ext := raw.Extension()
	r.mu.RLock()
	n, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: file extension %q", domain.ErrUnsupportedType, ext)
	}

	return n.Normalise(ctx, raw)
}

// Supports reports whether a normaliser is registered for ext.
func (r *Registry) Supports(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byExt[ext]
	return ok
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
