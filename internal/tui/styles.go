package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/satindergrewal/calmwave/internal/mode"
)

var (
	gray500 = lipgloss.Color("#6B7280")
	gray700 = lipgloss.Color("#374151")
	white   = lipgloss.Color("#F9FAFB")
	red     = lipgloss.Color("#F87171")
)

type styles struct {
	accent   lipgloss.Color
	brand    lipgloss.Style
	modeName lipgloss.Style
	muted    lipgloss.Style
	title    lipgloss.Style
	wave     lipgloss.Style
	status   lipgloss.Style
	err      lipgloss.Style
	cursor   lipgloss.Style
	box      lipgloss.Style
	sep      lipgloss.Style
}

func stylesFor(m mode.Mode) styles {
	accent := lipgloss.Color("#FFFFFF")
	from := lipgloss.Color("#4B5563")
	if info, ok := mode.Lookup(m); ok {
		accent = lipgloss.Color(info.Accent)
		from = lipgloss.Color(info.Gradient.From)
	}
	return styles{
		accent:   accent,
		brand:    lipgloss.NewStyle().Bold(true).Foreground(white),
		modeName: lipgloss.NewStyle().Bold(true).Foreground(from),
		muted:    lipgloss.NewStyle().Foreground(gray500),
		title:    lipgloss.NewStyle().Italic(true).Foreground(white),
		wave:     lipgloss.NewStyle().Foreground(accent),
		status:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		err:      lipgloss.NewStyle().Foreground(red),
		cursor:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(from).Padding(1, 3),
		sep:      lipgloss.NewStyle().Foreground(gray700),
	}
}
