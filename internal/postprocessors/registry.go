package postprocessors

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/postprocessors/chunker"
)

// ErrUnknownProcessor is returned for a stage name nothing is registered under.
var ErrUnknownProcessor = errors.New("unknown processor")

// BuilderFunc builds a processor from its config table. Keys a builder does
// not know are ignored.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage names one processor and its config.
type Stage struct {
	Name   string
	Config map[string]any
}

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// NewDefaultRegistry knows every built-in processor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("chunker", buildChunker)
	return r
}

// Register replaces any builder already under name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the processor registered under name, configured by cfg.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
	}
	return builder(cfg)
}

// BuildPipeline builds stages in order.
func (r *Registry) BuildPipeline(stages ...Stage) (*Pipeline, error) {
	p := NewPipeline()
	for _, st := range stages {
		proc, err := r.Build(st.Name, st.Config)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// Has reports whether a processor is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered processor names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// NewDefaultPipeline builds the ingest pipeline: one chunker sized by cfg.
func NewDefaultPipeline(cfg domain.ChunkingSettings) (*Pipeline, error) {
	return NewDefaultRegistry().BuildPipeline(Stage{
		Name:   "chunker",
		Config: map[string]any{"chunk_size": cfg.Size, "overlap": cfg.Overlap},
	})
}

// buildChunker reads chunk_size (> 0) and overlap (>= 0); anything else
// keeps the chunker's default.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size, ok := driven.ConfigInt(cfg["chunk_size"]); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := driven.ConfigInt(cfg["overlap"]); ok && overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}
