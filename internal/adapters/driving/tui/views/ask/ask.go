// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// typeFilters is the tab cycle order; the empty type means all documents.
var typeFilters = append([]domain.DocumentType{""}, domain.AllDocumentTypes()...)

// View is the ask view: a question input, the answer and its sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	answer    viewport.Model
	sources   *list.SourceList
	statusbar *status.Bar

	pipeline driving.PipelineService
	ctx      context.Context

	result     *domain.QueryResult
	filter     int
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, pipeline driving.PipelineService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		answer:     viewport.New(80, 8),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		pipeline:   pipeline,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.CycleType):
		v.filter = (v.filter + 1) % len(typeFilters)
		v.statusbar.SetDocType(v.DocType())
		return v, nil

	case msg.Type == tea.KeyEnter && v.focusInput:
		question := strings.TrimSpace(v.input.Value())
		if question == "" {
			return v, nil
		}
		v.err = nil
		v.statusbar.SetState(status.StateThinking)
		v.focusInput = false
		v.input.Blur()
		return v, v.ask(question)

	case v.focusInput:
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.sources.MoveUp()
	case "down", "j":
		v.sources.MoveDown()
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd
	case "n":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	return v, nil
}

// ask runs the query off the update loop.
func (v *View) ask(question string) tea.Cmd {
	opts := driving.QueryOptions{DocType: v.DocType()}
	ctx := v.ctx
	pipeline := v.pipeline
	return func() tea.Msg {
		if pipeline == nil {
			return messages.ErrorOccurred{Err: ErrNoPipelineService}
		}
		result, err := pipeline.Query(ctx, question, opts)
		return messages.AnswerReceived{Result: result, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Result == nil {
		return
	}

	v.err = nil
	v.result = msg.Result
	v.sources.SetSources(msg.Result.Sources)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetAnswer(len(msg.Result.Sources), msg.Result.TotalTimeMS)
	v.refreshAnswer()
	v.answer.GotoTop()
}

func (v *View) setError(err error) {
	v.err = err
	v.focusInput = true
	v.input.Focus()
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) refreshAnswer() {
	if v.result == nil {
		v.answer.SetContent("")
		return
	}
	wrap := lipgloss.NewStyle().Width(max(20, v.answer.Width-2))
	header := v.styles.Muted.Render(fmt.Sprintf("Q: %s", v.result.Question))
	v.answer.SetContent(header + "\n\n" + wrap.Render(v.result.Answer))
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("bankdoc"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil {
		sections = append(sections,
			v.styles.Answer.Render(v.answer.View()),
			"",
			v.sources.View(),
			v.styles.Muted.Render(fmt.Sprintf("%d chunks retrieved in %.1fms (total %.1fms)",
				v.result.ChunksRetrieved, v.result.SearchTimeMS, v.result.TotalTimeMS)),
		)
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and sizes the components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Header, input, status and spacing take about ten lines; the rest is
	// split between the answer and the sources.
	body := max(6, height-12)
	v.answer.Width = max(20, width-2)
	v.answer.Height = max(3, body*2/3)
	v.sources.SetDimensions(width, max(3, body-v.answer.Height))
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refreshAnswer()
}

// DocType returns the active document type filter. Empty means all types.
func (v *View) DocType() domain.DocumentType {
	return typeFilters[v.filter]
}

// Question returns the text in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the text in the input.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Result returns the last answer, or nil.
func (v *View) Result() *domain.QueryResult {
	return v.result
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused reports whether keystrokes go to the question input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Ready returns whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.result = nil
	v.sources.SetSources(nil)
	v.err = nil
	v.statusbar.Clear()
	v.refreshAnswer()
}
