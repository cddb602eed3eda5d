package ask

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// mockPipeline records the last query.
type mockPipeline struct {
	question string
	opts     driving.QueryOptions
	result   *domain.QueryResult
	err      error
}

func (m *mockPipeline) Ingest(context.Context, driving.IngestRequest) (*domain.IngestResult, error) {
	return nil, nil
}

func (m *mockPipeline) IngestFile(context.Context, string) (*domain.IngestResult, error) {
	return nil, nil
}

func (m *mockPipeline) Query(_ context.Context, question string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	m.question = question
	m.opts = opts
	return m.result, m.err
}

func (m *mockPipeline) DeleteDocument(context.Context, string) error { return nil }

func (m *mockPipeline) Stats(context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{}, nil
}

func (m *mockPipeline) RecheckBackend() {}

var _ driving.PipelineService = (*mockPipeline)(nil)

func sampleResult() *domain.QueryResult {
	return &domain.QueryResult{
		Question: "What is the net salary?",
		Answer:   "The net salary is Rs. 45,000.",
		Sources: []domain.Source{
			{Filename: "slip.txt", DocType: domain.DocTypeSalarySlip, Relevance: 0.87},
		},
		ChunksRetrieved: 3,
		SearchTimeMS:    4.2,
		TotalTimeMS:     120.5,
	}
}

func typeRunes(v *View, s string) {
	for _, r := range s {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.False(t, v.Ready())
	assert.Equal(t, domain.DocumentType(""), v.DocType())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_EnterAsksQuestion(t *testing.T) {
	pipeline := &mockPipeline{result: sampleResult()}
	v := NewView(nil, nil, pipeline)
	v.SetDimensions(100, 40)

	typeRunes(v, "net salary?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.InputFocused())

	msg := cmd()
	answer, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.Equal(t, "net salary?", pipeline.question)
	assert.NoError(t, answer.Err)

	v.Update(answer)

	require.NotNil(t, v.Result())
	view := v.View()
	assert.Contains(t, view, "Rs. 45,000")
	assert.Contains(t, view, "slip.txt")
	assert.Contains(t, view, "3 chunks retrieved")
}

func TestView_EnterWithBlankQuestionDoesNothing(t *testing.T) {
	v := NewView(nil, nil, &mockPipeline{})
	typeRunes(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_TabCyclesDocTypeFilter(t *testing.T) {
	pipeline := &mockPipeline{result: sampleResult()}
	v := NewView(nil, nil, pipeline)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, domain.DocTypeLoanApplication, v.DocType())

	for range len(domain.AllDocumentTypes()) {
		v.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	assert.Equal(t, domain.DocumentType(""), v.DocType(), "cycle wraps back to all types")

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeRunes(v, "pan")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, domain.DocTypeKYC, pipeline.opts.DocType)
}

func TestView_QueryError(t *testing.T) {
	v := NewView(nil, nil, &mockPipeline{err: errors.New("bad doc type")})
	v.SetDimensions(100, 40)

	typeRunes(v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	require.Error(t, v.Err())
	assert.True(t, v.InputFocused(), "input regains focus after an error")
	assert.Contains(t, v.View(), "bad doc type")
}

func TestView_NoPipeline(t *testing.T) {
	v := NewView(nil, nil, nil)
	typeRunes(v, "q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()

	errMsg, ok := msg.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, ErrNoPipelineService)
}

func TestView_NewQuestion(t *testing.T) {
	v := NewView(nil, nil, &mockPipeline{result: sampleResult()})
	v.SetDimensions(100, 40)
	typeRunes(v, "first")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Equal(t, "", v.Question())
	assert.NotNil(t, v.Result(), "previous answer stays visible")
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := NewView(nil, nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	v := NewView(nil, nil, &mockPipeline{})
	v.SetQuestion("old")
	v.Update(messages.AnswerReceived{Result: sampleResult()})

	v.Reset()

	assert.Nil(t, v.Result())
	assert.Equal(t, "", v.Question())
	assert.Equal(t, status.StateReady, v.statusbar.State())
}
