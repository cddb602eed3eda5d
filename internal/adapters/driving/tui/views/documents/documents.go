// Package documents lists ingested documents with a type filter, an action
// menu and confirmed deletion.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// ErrNoDocumentService is reported by Load when the view has no service.
var ErrNoDocumentService = errors.New("document service not available")

// typeFilters is the tab cycle order; the empty type lists everything.
var typeFilters = append([]domain.DocumentType{""}, domain.AllDocumentTypes()...)

type mode int

const (
	modeList mode = iota
	modeActions
	modeConfirm
)

// action is one entry of the per-document menu.
type action struct {
	label string
	run   func(v *View, doc domain.Document) tea.Cmd
}

var actions = []action{
	{"Show Details", func(_ *View, doc domain.Document) tea.Cmd {
		return func() tea.Msg { return messages.DocumentSelected{Document: doc} }
	}},
	{"Delete", func(v *View, _ domain.Document) tea.Cmd {
		v.askDelete()
		return nil
	}},
	{"Cancel", func(*View, domain.Document) tea.Cmd { return nil }},
}

// chrome is the rows taken by title, header, footer and padding.
const chrome = 8

// View is the documents screen. Deletion goes through the pipeline so the
// document's vectors are removed with it.
type View struct {
	styles    *styles.Styles
	keys      *keymap.KeyMap
	documents driving.DocumentService
	pipeline  driving.PipelineService
	ctx       context.Context

	items    []domain.Document
	filter   int
	selected int
	action   int
	mode     mode

	scrollOffset  int
	width, height int

	loading bool
	err     error
}

// NewView builds the view. A nil pipeline disables deletion.
func NewView(s *styles.Styles, documents driving.DocumentService, pipeline driving.PipelineService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		documents: documents,
		pipeline:  pipeline,
		ctx:       context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init returns nil; Load fetches the list.
func (v *View) Init() tea.Cmd { return nil }

// Load returns to the top of the list and fetches it again.
func (v *View) Load() tea.Cmd {
	v.selected, v.scrollOffset = 0, 0
	v.mode = modeList
	return v.fetch()
}

func (v *View) fetch() tea.Cmd {
	v.loading = true
	svc, ctx, docType := v.documents, v.ctx, v.DocType()
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx, docType)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles list navigation, the action menu and delete confirmation.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch v.mode {
		case modeConfirm:
			return v, v.confirm(msg)
		case modeActions:
			return v, v.actionKey(msg)
		default:
			return v, v.listKey(msg)
		}
	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.items = msg.Documents
			v.selected = min(v.selected, max(len(v.items)-1, 0))
			v.scroll()
		}
	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.fetch()
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) listKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.move(-1)
	case key.Matches(msg, v.keys.Down):
		v.move(1)
	case key.Matches(msg, v.keys.Select):
		if len(v.items) > 0 {
			v.mode, v.action = modeActions, 0
		}
	case key.Matches(msg, v.keys.Delete):
		v.askDelete()
	case key.Matches(msg, v.keys.CycleType):
		v.filter = (v.filter + 1) % len(typeFilters)
		return v.Load()
	case key.Matches(msg, v.keys.Reload):
		return v.fetch()
	case key.Matches(msg, v.keys.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return nil
}

func (v *View) move(delta int) {
	next := v.selected + delta
	if next < 0 || next >= len(v.items) {
		return
	}
	v.selected = next
	v.scroll()
}

func (v *View) actionKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.action = max(v.action-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.action = min(v.action+1, len(actions)-1)
	case key.Matches(msg, v.keys.Back):
		v.mode = modeList
	case key.Matches(msg, v.keys.Select):
		v.mode = modeList
		if doc := v.SelectedDocument(); doc != nil {
			return actions[v.action].run(v, *doc)
		}
	}
	return nil
}

func (v *View) askDelete() {
	if len(v.items) > 0 && v.pipeline != nil {
		v.mode = modeConfirm
	}
}

// confirm deletes on "y"; any other key cancels.
func (v *View) confirm(msg tea.KeyMsg) tea.Cmd {
	v.mode = modeList
	doc := v.SelectedDocument()
	if msg.String() != "y" || doc == nil {
		return nil
	}
	pipeline, ctx, id := v.pipeline, v.ctx, doc.ID
	return func() tea.Msg {
		return messages.DocumentDeleted{DocumentID: id, Err: pipeline.DeleteDocument(ctx, id)}
	}
}

// scroll keeps the selected row inside the visible window.
func (v *View) scroll() {
	rows := v.rows()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	}
	if v.selected >= v.scrollOffset+rows {
		v.scrollOffset = v.selected - rows + 1
	}
}

func (v *View) rows() int {
	return max(1, v.height-chrome)
}

// View renders the document list, or the action menu or confirmation when open.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", len(v.items))
	if dt := v.DocType(); dt != "" {
		title = fmt.Sprintf("Documents - %s (%d)", dt, len(v.items))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested."))
	case v.mode == modeActions:
		v.renderActions(&b)
		return b.String()
	default:
		v.renderList(&b)
	}
	b.WriteString("\n\n")

	if doc := v.SelectedDocument(); v.mode == modeConfirm && doc != nil {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s? [y/N]", doc.Filename)))
		return b.String()
	}
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [d] delete  [tab] type  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) nameWidth() int {
	return max(12, v.width-50)
}

func (v *View) renderList(b *strings.Builder) {
	width := v.nameWidth()
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-*s  %-16s  %5s  %s", width, "FILENAME", "TYPE", "SCORE", "UPLOADED")))
	b.WriteByte('\n')

	end := min(v.scrollOffset+v.rows(), len(v.items))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderRow(&v.items[i], i == v.selected, width))
		b.WriteByte('\n')
	}

	if len(v.items) > v.rows() {
		fmt.Fprintf(b, "\n%s", v.styles.Muted.Render(
			fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.items))))
	}
}

func (v *View) renderRow(doc *domain.Document, selected bool, width int) string {
	name := doc.Filename
	if len(name) > width {
		name = name[:width-3] + "..."
	}
	uploaded := doc.UploadedAt.Format("2006-01-02 15:04")

	if selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s  %-16s  %5.1f  %s",
			width, name, doc.Type, doc.QualityScore, uploaded))
	}
	pad := strings.Repeat(" ", max(2, 18-len(doc.Type.String())))
	return v.styles.Normal.Render(fmt.Sprintf("  %-*s  ", width, name)) +
		v.styles.DocType(doc.Type) + pad +
		v.styles.Quality(doc.QualityScore) + "  " +
		v.styles.Muted.Render(uploaded)
}

func (v *View) renderActions(b *strings.Builder) {
	if doc := v.SelectedDocument(); doc != nil {
		b.WriteString(v.styles.Subtitle.Render("Actions for: " + doc.Filename))
		b.WriteString("\n\n")
	}
	for i, a := range actions {
		if i == v.action {
			b.WriteString(v.styles.Selected.Render("> " + a.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + a.label))
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n" + v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
}

// SetDimensions sets the area the view renders into.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
}

// DocType returns the active type filter. Empty means all types.
func (v *View) DocType() domain.DocumentType {
	return typeFilters[v.filter]
}

// Documents returns the loaded list.
func (v *View) Documents() []domain.Document { return v.items }

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int { return v.selected }

// SelectedDocument returns nil when the list is empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.items) {
		return &v.items[v.selected]
	}
	return nil
}

// IsShowingMenu reports whether the action menu is open.
func (v *View) IsShowingMenu() bool { return v.mode == modeActions }

// IsConfirming reports whether a delete is awaiting confirmation.
func (v *View) IsConfirming() bool { return v.mode == modeConfirm }

// Err returns the last load or delete error.
func (v *View) Err() error { return v.err }
