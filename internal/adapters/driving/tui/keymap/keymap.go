// Package keymap holds the TUI key bindings and the hint sets each view shows.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is shared by every view so a key means the same thing everywhere.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Ask submits the typed question; NewQuestion clears the answer.
	Ask         key.Binding
	NewQuestion key.Binding

	// CycleType steps the document type filter on ask and documents.
	CycleType key.Binding
	Delete    key.Binding
	Reload    key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns vim-style navigation plus single-letter actions.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
		Back: bind("esc", "back", "esc"),

		Up:     bind("↑/k", "up", "up", "k"),
		Down:   bind("↓/j", "down", "down", "j"),
		Select: bind("enter", "select", "enter"),

		Ask:         bind("enter", "ask", "enter"),
		NewQuestion: bind("n", "new question", "n"),

		CycleType: bind("tab", "doc type", "tab"),
		Delete:    bind("d", "delete", "d"),
		Reload:    bind("r", "reload", "r"),
	}
}

// ShortHelp is shown while a question is being typed.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CycleType, k.Help, k.Quit}
}

// AnswerHelp is shown once an answer is on screen.
func (k *KeyMap) AnswerHelp() []key.Binding {
	return []key.Binding{k.NewQuestion, k.Up, k.Back}
}

// MenuHelp is the footer of the main menu.
func (k *KeyMap) MenuHelp() []key.Binding {
	return []key.Binding{k.Down, k.Select, k.Quit}
}

// FullHelp groups every binding into columns for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Ask, k.NewQuestion, k.CycleType},
		{k.Delete, k.Reload, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches reports whether keyStr, as produced by tea.KeyMsg.String, is bound.
func Matches(keyStr string, binding key.Binding) bool {
	return binding.Enabled() && slices.Contains(binding.Keys(), keyStr)
}
