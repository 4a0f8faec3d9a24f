// Package style composes lipgloss styles for CLI output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/nezuko-cli/nezuko/color"
)

func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer for foreground c.
func Fg(c lipgloss.Color) func(string) string {
	s := New().Foreground(c)
	return func(text string) string { return s.Render(text) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a padded banner.
func Title(s string) string {
	return New().Foreground(color.New("230")).Background(color.New("62")).Padding(0, 1).Render(s)
}

// Variant colors a server or language label by its audio type.
func Variant(kind, name string) string {
	switch kind {
	case "dub":
		return Fg(Peach)(name)
	case "multi":
		return Fg(AccentColor)(name)
	default:
		return Fg(Sapphire)(name)
	}
}
