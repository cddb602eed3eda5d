// Package docdetails shows one document: analysis, extracted entities and a
// preview of its text.
package docdetails

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

// previewLines is how much of the extracted text is shown.
const previewLines = 15

var errNoService = errors.New("document service not available")

type lineKind int

const (
	kindField   lineKind = iota // label: value
	kindHeading                 // section title
	kindEntity                  // indented label: value, value flagged when invalid
	kindText                    // preview of document text
	kindBlank
)

type line struct {
	kind    lineKind
	label   string
	value   string
	invalid bool
}

// String formats the line as plain text.
func (l line) String() string {
	switch l.kind {
	case kindField:
		return fmt.Sprintf("%-10s %s", l.label+":", l.value)
	case kindEntity:
		return fmt.Sprintf("  %s: %s", l.label, l.value)
	case kindText:
		return "  " + l.value
	case kindBlank:
		return ""
	}
	return l.label
}

// View scrolls line by line through the laid-out document.
type View struct {
	styles    *styles.Styles
	keys      *keymap.KeyMap
	documents driving.DocumentService
	ctx       context.Context

	document *domain.Document
	summary  *domain.EntitySummary
	entities []domain.Entity

	scrollOffset  int
	width, height int
	loading       bool
	err           error
}

// NewView creates the details view. A nil s uses the default styles.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		keys:      keymap.DefaultKeyMap(),
		documents: documents,
		ctx:       context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load shows doc at once and fetches its entities in the background.
func (v *View) Load(doc domain.Document) tea.Cmd {
	v.document = &doc
	v.summary, v.entities, v.err = nil, nil, nil
	v.scrollOffset = 0
	v.loading = true

	svc, ctx := v.documents, v.ctx
	return func() tea.Msg {
		msg := messages.DocumentDetailsLoaded{Document: doc}
		if svc == nil {
			msg.Err = errNoService
			return msg
		}
		if msg.Summary, msg.Err = svc.EntitySummary(ctx, doc.ID); msg.Err != nil {
			return msg
		}
		msg.Entities, msg.Err = svc.Entities(ctx, doc.ID)
		return msg
	}
}

// Init returns nil; Load fetches the document.
func (v *View) Init() tea.Cmd { return nil }

// Update handles loaded details, scrolling and the back key.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.scrollOffset = max(v.scrollOffset-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
		}

	case messages.DocumentDetailsLoaded:
		// A slow load for a document the user already left is dropped.
		if v.document == nil || msg.Document.ID != v.document.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.summary = msg.Summary
		v.entities = msg.Entities

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

// visibleLines leaves room for title, rule, help and padding.
func (v *View) visibleLines() int {
	return max(1, v.height-6)
}

func (v *View) maxScrollOffset() int {
	return max(0, len(v.lines())-v.visibleLines())
}

func (v *View) lines() []line {
	d := v.document
	if d == nil {
		return nil
	}

	out := []line{
		{label: "ID", value: d.ID},
		{label: "Filename", value: d.Filename},
		{label: "Type", value: fmt.Sprintf("%s (%s)", d.Type, d.Type.Description())},
		{label: "Quality", value: fmt.Sprintf("%.1f / 100", d.QualityScore)},
		{label: "Words", value: fmt.Sprintf("%d in %d sentences", d.Stats.Words, d.Stats.Sentences)},
	}
	if d.FilePath != "" {
		out = append(out, line{label: "Path", value: d.FilePath})
	}
	if !d.UploadedAt.IsZero() {
		out = append(out, line{label: "Uploaded", value: d.UploadedAt.Format("2006-01-02 15:04:05")})
	}

	if v.summary != nil {
		out = append(out, line{kind: kindBlank}, line{kind: kindHeading, label: fmt.Sprintf("Entities: %d", v.summary.Total)})
		for _, t := range domain.AllEntityTypes() {
			if v.summary.Counts[t] > 0 {
				out = append(out, v.entityLine(t))
			}
		}
	}

	if d.Text != "" {
		out = append(out, line{kind: kindBlank}, line{kind: kindHeading, label: "Text:"})
		text := strings.Split(d.Text, "\n")
		for i, t := range text {
			if i == previewLines {
				out = append(out, line{kind: kindText, value: fmt.Sprintf("... %d more lines", len(text)-previewLines)})
				break
			}
			out = append(out, line{kind: kindText, value: "| " + t})
		}
	}
	return out
}

// entityLine joins the values of one type. Values that failed a format
// check are marked; types without values fall back to the count.
func (v *View) entityLine(t domain.EntityType) line {
	l := line{kind: kindEntity, label: string(t)}

	var values []string
	for _, e := range v.entities {
		if e.Type != t {
			continue
		}
		if t.HasValidator() && !e.Valid {
			values = append(values, e.Value+" (invalid)")
			l.invalid = true
			continue
		}
		values = append(values, e.Value)
	}
	if len(values) == 0 {
		l.value = fmt.Sprint(v.summary.Counts[t])
		return l
	}

	l.value = strings.Join(values, ", ")
	if limit := max(20, v.width-30); len(l.value) > limit {
		l.value = l.value[:limit-3] + "..."
	}
	return l
}

func (v *View) render(l line) string {
	s := v.styles
	switch l.kind {
	case kindHeading:
		return s.Subtitle.Render(l.label)
	case kindText:
		return s.Muted.Render(l.String())
	case kindEntity:
		value := s.Normal
		if l.invalid {
			value = s.Warning
		}
		return s.Muted.Render("  "+l.label+":") + value.Render(" "+l.value)
	case kindBlank:
		return ""
	}
	return s.Subtitle.Render(fmt.Sprintf("%-10s", l.label+":")) + s.Normal.Render(" "+l.value)
}

// View renders the document fields, entity summary and entity list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n" + strings.Repeat("─", max(0, min(v.width-4, 60))) + "\n\n")

	if v.document == nil {
		b.WriteString(v.styles.Muted.Render("No document selected"))
		b.WriteString("\n\n" + v.styles.Help.Render("[esc] back"))
		return b.String()
	}
	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	lines := v.lines()
	end := min(v.scrollOffset+v.visibleLines(), len(lines))
	for _, l := range lines[min(v.scrollOffset, end):end] {
		b.WriteString(v.render(l))
		b.WriteByte('\n')
	}
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading entities...") + "\n")
	}
	if len(lines) > v.visibleLines() {
		b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.scrollOffset+1, end, len(lines))))
	}

	b.WriteString("\n\n" + v.styles.Help.Render("[↑/↓] scroll  [esc] back"))
	return b.String()
}

// SetDimensions sets the area the view renders into.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
}

// Document returns the loaded document, or nil before loading.
func (v *View) Document() *domain.Document { return v.document }

// Summary returns the loaded entity summary.
func (v *View) Summary() *domain.EntitySummary { return v.summary }

// Err returns the last load error.
func (v *View) Err() error { return v.err }
