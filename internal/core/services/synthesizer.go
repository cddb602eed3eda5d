package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
	"github.com/custodia-labs/bankdoc-rag/internal/tracing"
)

// Ensure AnswerSynthesizer reports generative status.
var _ GenerativeStatus = (*AnswerSynthesizer)(nil)

// NoDocumentsAnswer is returned when retrieval finds nothing.
const NoDocumentsAnswer = "No relevant documents found for your query."

const (
	fallbackHeader = "**AI answers are not available right now. Here are the relevant document excerpts:**"
	fallbackFooter = "*Check the LLM provider with 'bankdoc settings llm' to get AI-powered answers.*"

	fallbackExcerpts     = 3
	fallbackExcerptRunes = 500

	contextSeparator = "\n\n---\n\n"
	unknownFilename  = "Unknown"

	availabilityTimeout = 5 * time.Second
)

// AnswerSynthesizer phrases an answer from retrieved chunks using the
// generative backend, or lists the chunks when the backend is unavailable.
//
// Availability is checked once and cached until Invalidate is called.
type AnswerSynthesizer struct {
	providers *ProviderRegistry
	prompts   driven.PromptStore

	mu        sync.Mutex
	checked   bool
	available bool
	llm       driven.LLMService
}

// NewAnswerSynthesizer creates a synthesizer.
// prompts may be nil, in which case the built-in answer template is used.
func NewAnswerSynthesizer(providers *ProviderRegistry, prompts driven.PromptStore) *AnswerSynthesizer {
	return &AnswerSynthesizer{
		providers: providers,
		prompts:   prompts,
	}
}

// Available reports whether the generative backend can be used.
// The first call pings the backend; later calls return the cached result.
func (s *AnswerSynthesizer) Available(ctx context.Context) bool {
	_, ok := s.backend(ctx)
	return ok
}

// ModelName returns the generative model name, or "" when unavailable.
func (s *AnswerSynthesizer) ModelName(ctx context.Context) string {
	llm, ok := s.backend(ctx)
	if !ok {
		return ""
	}
	return llm.ModelName()
}

// Invalidate forgets the cached availability so the next call pings again.
func (s *AnswerSynthesizer) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = false
	s.available = false
	s.llm = nil
}

func (s *AnswerSynthesizer) backend(ctx context.Context) (driven.LLMService, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checked {
		return s.llm, s.available
	}
	s.checked = true

	llm, err := s.providers.LLM(ctx)
	if err != nil {
		logger.Warn("Generative backend not available: %v", err)
		return nil, false
	}

	pingCtx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()
	if err := llm.Ping(pingCtx); err != nil {
		logger.Warn("Generative backend unreachable: %v", err)
		return nil, false
	}

	s.llm = llm
	s.available = true
	logger.Info("Generative backend available: %s", llm.ModelName())
	return s.llm, true
}

// Generate answers question from chunks. It never fails: an unavailable
// backend or a failed generation yields the excerpt fallback, and no chunks
// yields NoDocumentsAnswer.
func (s *AnswerSynthesizer) Generate(
	ctx context.Context, question string, chunks []domain.RetrievedChunk, maxTokens int,
) string {
	ctx, span := tracing.StartSpan(ctx, "synthesizer.generate",
		attribute.Int("context_chunks", len(chunks)),
		attribute.Int("max_tokens", maxTokens),
	)
	defer span.End()

	if len(chunks) == 0 {
		return NoDocumentsAnswer
	}
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}

	llm, ok := s.backend(ctx)
	if !ok {
		span.SetAttributes(attribute.Bool("fallback", true))
		return FallbackAnswer(chunks)
	}

	prompt := driven.RenderAnswerPrompt(s.template(), BuildContext(chunks), question)

	answer, err := llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: maxTokens})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("empty response from %s", llm.ModelName())
	}
	if err != nil {
		logger.Warn("Generation failed, falling back to excerpts: %v", err)
		tracing.RecordError(ctx, err)
		span.SetAttributes(attribute.Bool("fallback", true))
		return FallbackAnswer(chunks)
	}

	tracing.AddEvent(ctx, "answer_generated", attribute.Int("answer_length", len(answer)))
	return answer
}

func (s *AnswerSynthesizer) template() string {
	if s.prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil || !driven.ValidAnswerPrompt(tmpl) {
		logger.Debug("Using built-in answer prompt (load error: %v)", err)
		return driven.DefaultAnswerPrompt
	}
	return tmpl
}

// BuildContext labels each chunk with its source filename and joins them.
func BuildContext(chunks []domain.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[Source: %s]\n%s", filename(c), c.Text))
	}
	return strings.Join(parts, contextSeparator)
}

// FallbackAnswer lists up to three chunks with their filenames.
func FallbackAnswer(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return NoDocumentsAnswer
	}

	var b strings.Builder
	b.WriteString(fallbackHeader)
	b.WriteString("\n\n")
	for i, c := range chunks[:min(fallbackExcerpts, len(chunks))] {
		fmt.Fprintf(&b, "**%d. From %s:**\n", i+1, filename(c))
		b.WriteString(truncateRunes(c.Text, fallbackExcerptRunes))
		b.WriteString("...\n\n")
	}
	b.WriteString("\n")
	b.WriteString(fallbackFooter)
	return b.String()
}

func filename(c domain.RetrievedChunk) string {
	if c.Metadata.Filename == "" {
		return unknownFilename
	}
	return c.Metadata.Filename
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
