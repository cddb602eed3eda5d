// Package stats provides the index and corpus statistics view for the TUI.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
)

// View shows what is indexed and whether answers are generated.
type View struct {
	styles    *styles.Styles
	pipeline  driving.PipelineService
	documents driving.DocumentService
	ctx       context.Context

	index   *domain.IndexStats
	corpus  *domain.CorpusStatistics
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a statistics view. documents may be nil.
func NewView(s *styles.Styles, pipeline driving.PipelineService, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		pipeline:  pipeline,
		documents: documents,
		ctx:       context.Background(),
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load fetches fresh statistics. The generative backend is pinged again,
// so one started after the TUI opened shows up on reload.
func (v *View) Load() tea.Cmd {
	v.loading = true
	pipeline, documents, ctx := v.pipeline, v.documents, v.ctx
	return func() tea.Msg {
		var msg messages.StatsLoaded
		if pipeline != nil {
			pipeline.RecheckBackend()
			msg.Index, msg.Err = pipeline.Stats(ctx)
			if msg.Err != nil {
				return msg
			}
		}
		if documents != nil {
			msg.Corpus, msg.Err = documents.Statistics(ctx)
		}
		return msg
	}
}

// Update handles messages for the statistics view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.StatsLoaded:
		v.loading = false
		v.index = msg.Index
		v.corpus = msg.Corpus
		v.err = msg.Err

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.Load()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}
	return v, nil
}

// View renders the statistics.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Statistics"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading statistics..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	default:
		v.renderIndex(&b)
		v.renderCorpus(&b)
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderIndex(b *strings.Builder) {
	if v.index == nil {
		return
	}
	b.WriteString(v.styles.Subtitle.Render("Index"))
	b.WriteString("\n")
	fmt.Fprintf(b, "  Chunks:          %d\n", v.index.TotalRecords)
	fmt.Fprintf(b, "  Embedding model: %s\n", v.index.EmbeddingModel)
	if v.index.GenerativeAvailable {
		b.WriteString("  LLM:             " + v.styles.Success.Render(v.index.GenerativeModel) + "\n")
	} else {
		b.WriteString("  LLM:             " + v.styles.Warning.Render("unavailable (fallback answers)") + "\n")
	}
	b.WriteString("\n")
}

func (v *View) renderCorpus(b *strings.Builder) {
	if v.corpus == nil {
		return
	}
	b.WriteString(v.styles.Subtitle.Render("Corpus"))
	b.WriteString("\n")
	fmt.Fprintf(b, "  Documents:       %d\n", v.corpus.TotalDocuments)
	for _, t := range domain.AllDocumentTypes() {
		if n := v.corpus.ByType[t]; n > 0 {
			fmt.Fprintf(b, "    %-16s %d\n", t, n)
		}
	}
	b.WriteString("  Avg quality:     " + strings.TrimSpace(v.styles.Quality(v.corpus.AverageQualityScore)) + "\n")
	fmt.Fprintf(b, "  Entities:        %d\n", v.corpus.TotalEntities)
	fmt.Fprintf(b, "  Queries:         %d\n", v.corpus.TotalQueries)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
