// Package menu is the TUI start screen.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Quit entries end the program instead of switching view.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View lists the screens the app can switch to.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView builds the menu. Documents and Statistics are offered only when
// a document service is wired.
func NewView(s *styles.Styles, withDocuments bool) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	items := []Item{{Label: "Ask", Hint: "question your documents", View: messages.ViewAsk}}
	if withDocuments {
		items = append(items,
			Item{Label: "Documents", Hint: "browse ingested documents and entities", View: messages.ViewDocuments},
			Item{Label: "Statistics", Hint: "index and corpus totals", View: messages.ViewStats},
		)
	}
	items = append(items, Item{Label: "Help", View: messages.ViewHelp}, Item{Label: "Quit", Quit: true})

	h := help.New()
	h.Styles.ShortKey = s.Help
	h.Styles.ShortDesc = s.Muted

	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		help:   h,
		items:  items,
		width:  80,
		height: 24,
	}
}

// Init returns nil; the menu has nothing to load.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and emits ViewChanged on select.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keys.Select):
			return v, v.choose(v.items[v.selected])
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *View) choose(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the menu entries with the selection highlighted.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("bankdoc"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Questions over your banking documents"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		cursor, label := "  ", v.styles.Normal.Render(item.Label)
		if i == v.selected {
			cursor, label = "> ", v.styles.Subtitle.Render(item.Label)
		}
		b.WriteString(cursor + label)
		if item.Hint != "" {
			b.WriteString(v.styles.Muted.Render("  " + item.Hint))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(v.help.ShortHelpView(v.keys.MenuHelp()))
	return b.String()
}

// SetDimensions records the terminal size and marks the view renderable.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
