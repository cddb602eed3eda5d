package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
)

func labels(v *View) []string {
	out := make([]string, len(v.items))
	for i, item := range v.items {
		out[i] = item.Label
	}
	return out
}

func TestNewView_WithDocuments(t *testing.T) {
	view := NewView(styles.DefaultStyles(), true)

	require.NotNil(t, view)
	assert.Equal(t, []string{"Ask", "Documents", "Statistics", "Help", "Quit"}, labels(view))
	assert.Equal(t, 0, view.Selected())
}

func TestNewView_WithoutDocuments(t *testing.T) {
	view := NewView(nil, false)

	assert.NotNil(t, view.styles)
	assert.Equal(t, []string{"Ask", "Help", "Quit"}, labels(view))
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, true)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_Update_Navigation(t *testing.T) {
	view := NewView(nil, true)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)

	j := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	for range 10 {
		view.Update(j)
	}
	assert.Equal(t, 4, view.selected)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 3, view.selected)

	k := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	for range 10 {
		view.Update(k)
	}
	assert.Equal(t, 0, view.selected)
}

func TestView_Update_EnterChangesView(t *testing.T) {
	tests := []struct {
		index    int
		expected messages.ViewType
	}{
		{0, messages.ViewAsk},
		{1, messages.ViewDocuments},
		{2, messages.ViewStats},
		{3, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			view := NewView(nil, true)
			view.selected = tt.index

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)

			msg := cmd()
			changed, ok := msg.(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.expected, changed.View)
		})
	}
}

func TestView_Update_Quit(t *testing.T) {
	view := NewView(nil, false)
	view.selected = len(view.items) - 1

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil, true)
	assert.Equal(t, "Initialising...", view.View())

	view.SetDimensions(80, 24)
	out := view.View()

	assert.Contains(t, out, "bankdoc")
	assert.Contains(t, out, "Documents")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "select")
}
