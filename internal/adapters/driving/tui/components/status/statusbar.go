// Package status renders the one-line bar under the ask view.
package status

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// State selects what the left half of the bar says.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateHelp     State = "help"
	StateAnswered State = "answered"
)

// Bar shows the query state and filter on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	hints  help.Model

	state   State
	message string
	docType domain.DocumentType

	sourceCount int
	elapsedMS   float64

	width int
}

// NewBar falls back to the default styles and keys when either is nil.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	hints := help.New()
	hints.Styles.ShortKey = s.Muted
	hints.Styles.ShortDesc = s.Muted
	hints.Styles.ShortSeparator = s.Muted

	return &Bar{styles: s, keymap: km, hints: hints, state: StateReady, width: 80}
}

// Init returns nil; the bar has no startup work.
func (s *Bar) Init() tea.Cmd { return nil }

// Update ignores messages; owners drive the bar through its setters.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) { return s, nil }

// View renders the status on the left and key hints on the right.
func (s *Bar) View() string {
	left := s.status()
	right := s.hints.ShortHelpView(s.bindings())

	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	line := lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().Width(gap).Render(""), right)
	return s.styles.StatusBar.Width(s.width).Render(line)
}

func (s *Bar) bindings() []key.Binding {
	if s.state == StateAnswered {
		return s.keymap.AnswerHelp()
	}
	return s.keymap.ShortHelp()
}

// status renders the state label. Errors drop the filter to leave room for
// the message.
func (s *Bar) status() string {
	var filter string
	if s.docType != "" {
		filter = s.styles.Muted.Render(" [" + s.docType.String() + "]")
	}

	switch s.state {
	case StateThinking:
		return s.styles.Muted.Render("Thinking...") + filter
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateAnswered:
		summary := fmt.Sprintf("%d sources in %.0fms", s.sourceCount, s.elapsedMS)
		return s.styles.Normal.Render(summary) + filter
	default:
		return s.styles.Muted.Render("Ready") + filter
	}
}

// SetState changes the state the bar shows.
func (s *Bar) SetState(state State) { s.state = state }

// State returns the current state.
func (s *Bar) State() State { return s.state }

// SetMessage sets the text shown in StateError.
func (s *Bar) SetMessage(message string) { s.message = message }

// Message returns the error text.
func (s *Bar) Message() string { return s.message }

// SetDocType shows the active filter; empty hides it.
func (s *Bar) SetDocType(t domain.DocumentType) { s.docType = t }

// SetAnswer records the summary shown in StateAnswered.
func (s *Bar) SetAnswer(sourceCount int, elapsedMS float64) {
	s.sourceCount = sourceCount
	s.elapsedMS = elapsedMS
}

// SourceCount returns the number of sources behind the last answer.
func (s *Bar) SourceCount() int { return s.sourceCount }

// SetWidth sizes the bar and gives half of it to the key hints.
func (s *Bar) SetWidth(width int) {
	s.width = width
	s.hints.Width = width / 2
}

// Width returns the rendered width.
func (s *Bar) Width() int { return s.width }

// Clear returns to StateReady and keeps the filter.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.sourceCount = 0
	s.elapsedMS = 0
}
