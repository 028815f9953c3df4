package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// fallbackColor renders event colors missing from the palette.
const fallbackColor = lipgloss.Color("15")

type styles struct {
	header   lipgloss.Style
	filters  lipgloss.Style
	selected lipgloss.Style
	dim      lipgloss.Style
	status   lipgloss.Style
	errText  lipgloss.Style
	label    lipgloss.Style
	focused  lipgloss.Style
	help     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		filters:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		selected: lipgloss.NewStyle().Reverse(true),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		label:    lipgloss.NewStyle().Width(12),
		focused:  lipgloss.NewStyle().Width(12).Bold(true).Foreground(lipgloss.Color("12")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Palette maps lower-case event color names to terminal colors.
type Palette map[string]string

// normalized returns a copy of p with lower-cased keys.
func (p Palette) normalized() Palette {
	out := make(Palette, len(p))
	for name, c := range p {
		out[strings.ToLower(strings.TrimSpace(name))] = c
	}
	return out
}

// style returns the foreground style for an event color, matched
// case-insensitively. An empty color is unstyled and an unknown one renders
// white.
func (p Palette) style(name string) lipgloss.Style {
	if name == "" {
		return lipgloss.NewStyle()
	}
	if c, ok := p[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return lipgloss.NewStyle().Foreground(fallbackColor)
}
