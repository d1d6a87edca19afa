package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are the lipgloss styles of one theme.
type styles struct {
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	canvas  lipgloss.Style
	subtle  lipgloss.Style
	paused  lipgloss.Style
	running lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		header:  lipgloss.NewStyle().Foreground(t.Secondary).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		graph:   lipgloss.NewStyle().Foreground(t.Accent),
		help:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		ok:      lipgloss.NewStyle().Foreground(t.Success),
		warn:    lipgloss.NewStyle().Foreground(t.Warning),
		bad:     lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		canvas:  lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 2),
		subtle:  lipgloss.NewStyle().Foreground(t.Muted),
		paused:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		running: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
	}
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells, coloured
// by how full it is.
func (s styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.5:
		return s.ok.Render(bar)
	case fraction > 0.2:
		return s.warn.Render(bar)
	}
	return s.bad.Render(bar)
}

// Separator draws a centred divider.
func (s styles) Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return s.subtle.Render(left + " ◆ " + right)
}
