package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/views/stats"
)

var _ tea.Model = (*App)(nil)

// App routes messages between the menu and the four working views. Key
// presses go to the active view; results of service calls go to the view
// that issued them, even if the user has moved on.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menu      *menu.View
	ask       *ask.View
	documents *documents.View
	details   *docdetails.View
	stats     *stats.View

	current messages.ViewType
	err     error

	width, height int
	ready         bool
}

// NewApp fails only when ports lack the pipeline service.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		menu:      menu.NewView(s, ports.Document != nil),
		ask:       ask.NewView(s, keymap.DefaultKeyMap(), ports.Pipeline),
		documents: documents.NewView(s, ports.Document, ports.Pipeline),
		details:   docdetails.NewView(s, ports.Document),
		stats:     stats.NewView(s, ports.Pipeline, ports.Document),
		current:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context passed to every service call.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.ask.WithContext(ctx)
	a.documents.WithContext(ctx)
	a.details.WithContext(ctx)
	a.stats.WithContext(ctx)
	return a
}

// Init switches to the alternate screen and sets the window title.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle("bankdoc"))
}

// Update routes msg to the active view and handles navigation between views.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
	case messages.Quit:
		return a, tea.Quit
	case messages.ViewChanged:
		return a, a.switchTo(msg.View)
	case messages.DocumentSelected:
		a.current = messages.ViewDocDetails
		return a, a.details.Load(msg.Document)
	case messages.AnswerReceived:
		a.err = msg.Err
	case messages.ErrorOccurred:
		a.err = msg.Err
	}

	if owner, ok := ownerOf(msg); ok {
		return a, a.forward(owner, msg)
	}
	return a, a.forward(a.current, msg)
}

// ownerOf names the view that asked for a service result.
func ownerOf(msg tea.Msg) (messages.ViewType, bool) {
	switch msg.(type) {
	case messages.AnswerReceived:
		return messages.ViewAsk, true
	case messages.DocumentsLoaded, messages.DocumentDeleted:
		return messages.ViewDocuments, true
	case messages.DocumentDetailsLoaded:
		return messages.ViewDocDetails, true
	case messages.StatsLoaded:
		return messages.ViewStats, true
	}
	return 0, false
}

// switchTo activates view and starts whatever load it needs.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.current = view
	switch view {
	case messages.ViewAsk:
		a.ask.Reset()
		return a.ask.Init()
	case messages.ViewDocuments:
		return a.documents.Load()
	case messages.ViewStats:
		return a.stats.Load()
	}
	return nil
}

// updater is satisfied by every view: Update returns the view's own type.
type updater[V any] interface {
	Update(tea.Msg) (V, tea.Cmd)
}

func update[V updater[V]](v *V, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	*v, cmd = (*v).Update(msg)
	return cmd
}

func (a *App) forward(view messages.ViewType, msg tea.Msg) tea.Cmd {
	switch view {
	case messages.ViewMenu:
		return update(&a.menu, msg)
	case messages.ViewAsk:
		return update(&a.ask, msg)
	case messages.ViewDocuments:
		return update(&a.documents, msg)
	case messages.ViewDocDetails:
		return update(&a.details, msg)
	case messages.ViewStats:
		return update(&a.stats, msg)
	case messages.ViewHelp:
		if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
			a.current = messages.ViewMenu
		}
	}
	return nil
}

// View renders the active view above the status bar.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.current {
	case messages.ViewAsk:
		return a.ask.View()
	case messages.ViewDocuments:
		return a.documents.View()
	case messages.ViewDocDetails:
		return a.details.View()
	case messages.ViewStats:
		return a.stats.View()
	case messages.ViewHelp:
		return a.helpView()
	}
	return a.menu.View()
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Anywhere", [][2]string{{"esc", "Back"}, {"ctrl+c", "Quit"}}},
	{"Menu", [][2]string{{"j/k, ↑/↓", "Navigate options"}, {"enter", "Select option"}, {"q", "Quit"}}},
	{"Ask", [][2]string{
		{"(type)", "Enter a question"},
		{"enter", "Ask"},
		{"tab", "Cycle document type filter"},
		{"n", "New question"},
		{"j/k, ↑/↓", "Move through sources"},
		{"pgup/pgdn", "Scroll the answer"},
	}},
	{"Documents", [][2]string{
		{"enter", "Actions (details, delete)"},
		{"d", "Delete, confirm with y"},
		{"tab", "Cycle document type filter"},
		{"r", "Reload"},
	}},
}

func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, sec := range helpSections {
		b.WriteString(a.styles.Subtitle.Render(sec.title + ":"))
		b.WriteByte('\n')
		for _, r := range sec.rows {
			fmt.Fprintf(&b, "  %-12s%s\n", r[0], r[1])
		}
		b.WriteByte('\n')
	}
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run blocks until the user quits or the context ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView returns the view being shown.
func (a *App) CurrentView() messages.ViewType { return a.current }

// Err returns the last error a view reported.
func (a *App) Err() error { return a.err }

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool { return a.ready }

// SetDimensions sizes the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.menu.SetDimensions(width, height)
	a.ask.SetDimensions(width, height)
	a.documents.SetDimensions(width, height)
	a.details.SetDimensions(width, height)
	a.stats.SetDimensions(width, height)
}
