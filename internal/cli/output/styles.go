package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	SQL     lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusSkipped lipgloss.Style
}

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	colorError   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
)

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(colorPrimary),
		Header2: r.NewStyle().Bold(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Success: r.NewStyle().Foreground(colorSuccess),
		Error:   r.NewStyle().Foreground(colorError).Bold(true),
		Warning: r.NewStyle().Foreground(colorWarning),
		Info:    r.NewStyle().Foreground(colorPrimary),
		SQL:     r.NewStyle().Foreground(colorPrimary),

		StatusSuccess: r.NewStyle().Foreground(colorSuccess).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(colorError).SetString("✗"),
		StatusSkipped: r.NewStyle().Foreground(colorMuted).SetString("-"),
	}
}
