// Package styles maps the bankdoc palette onto lipgloss styles.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// Theme is a palette. DocTypes gives each document type its badge colour.
type Theme struct {
	Primary, Secondary, Foreground, Muted lipgloss.Color
	Success, Warning, Error               lipgloss.Color
	Border, Background                    lipgloss.Color

	DocTypes map[domain.DocumentType]lipgloss.Color
}

// DefaultTheme returns the teal-on-slate palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    "#0EA5A4",
		Secondary:  "#60A5FA",
		Foreground: "#E2E8F0",
		Muted:      "#64748B",
		Success:    "#4ADE80",
		Warning:    "#FACC15",
		Error:      "#F87171",
		Border:     "#334155",
		Background: "#0F172A",
		DocTypes: map[domain.DocumentType]lipgloss.Color{
			domain.DocTypeLoanApplication: "#F472B6",
			domain.DocTypeKYC:             "#A78BFA",
			domain.DocTypeBankStatement:   "#38BDF8",
			domain.DocTypeSalarySlip:      "#34D399",
			domain.DocTypeOther:           "#94A3B8",
		},
	}
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title, Subtitle, Normal, Muted, Selected lipgloss.Style
	Error, Success, Warning                  lipgloss.Style

	// InputField boxes the question; Answer rules the reply on the left.
	InputField, Answer lipgloss.Style
	StatusBar, Help    lipgloss.Style
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// NewStyles builds the style set for theme, or the default theme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		theme:    theme,
		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Background).Background(theme.Primary).Bold(true),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Warning:  fg(theme.Warning),
		Help:     fg(theme.Muted),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		Answer: fg(theme.Foreground).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(theme.Primary).
			PaddingLeft(1),
		StatusBar: fg(theme.Muted).Background(theme.Background).Padding(0, 1),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// DocType renders t in its badge colour; unknown types are muted.
func (s *Styles) DocType(t domain.DocumentType) string {
	c, ok := s.theme.DocTypes[t]
	if !ok {
		c = s.theme.Muted
	}
	return fg(c).Render(t.String())
}

// Quality right-aligns score in five columns: green from 70, yellow from 40,
// red below.
func (s *Styles) Quality(score float64) string {
	text := fmt.Sprintf("%5.1f", score)
	switch {
	case score >= 70:
		return s.Success.Render(text)
	case score >= 40:
		return s.Warning.Render(text)
	}
	return s.Error.Render(text)
}
