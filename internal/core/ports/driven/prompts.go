package driven

import "strings"

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer phrases an answer from retrieved context.
	// The template must contain PlaceholderContext and PlaceholderQuestion.
	PromptAnswer = "answer"
)

// Placeholders substituted into the answer template. Any other text,
// including a literal %, is passed through unchanged.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// AnswerPlaceholders lists the placeholders an answer template must keep.
func AnswerPlaceholders() []string {
	return []string{PlaceholderContext, PlaceholderQuestion}
}

// ValidAnswerPrompt reports whether tmpl contains every answer placeholder.
func ValidAnswerPrompt(tmpl string) bool {
	for _, p := range AnswerPlaceholders() {
		if !strings.Contains(tmpl, p) {
			return false
		}
	}
	return true
}

// RenderAnswerPrompt fills tmpl with the context block and the question.
// Substitution is a single pass, so placeholder text inside the context or
// the question is left as it is.
func RenderAnswerPrompt(tmpl, contextBlock, question string) string {
	return strings.NewReplacer(
		PlaceholderContext, contextBlock,
		PlaceholderQuestion, question,
	).Replace(tmpl)
}

// DefaultAnswerPrompt is the built-in answer template, used when no
// PromptStore is configured or a stored template is unusable.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultAnswerPrompt = `You are a helpful banking document assistant. Answer the user's question based ONLY on the provided context. If the information is not in the context, say "I don't have that information in the uploaded documents."

CONTEXT:
{context}

USER QUESTION: {question}

INSTRUCTIONS:
- Answer based only on the context above
- Be concise and accurate
- Cite the source document when possible
- If you can't find the answer, say so clearly

ANSWER:`
