// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// SourceList displays the documents cited by an answer.
type SourceList struct {
	sources  []domain.Source
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.sources))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}

	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(index int, src *domain.Source) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := src.Filename
	maxNameLen := l.width - 30
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	relevance := fmt.Sprintf("%.3f", src.Relevance)
	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %-16s  %s",
			indicator, maxNameLen, name, src.DocType, relevance))
	}
	return l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		l.styles.DocType(src.DocType) +
		strings.Repeat(" ", max(2, 18-len(src.DocType.String()))) +
		l.styles.Muted.Render(relevance)
}

// SetSources replaces the list and resets the selection.
func (l *SourceList) SetSources(sources []domain.Source) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.Source {
	return l.sources
}

// Selected returns the selected index.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected source, or nil when empty.
func (l *SourceList) SelectedSource() *domain.Source {
	if l.selected < 0 || l.selected >= len(l.sources) {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves the selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
