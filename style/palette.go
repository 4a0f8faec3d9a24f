package style

import "github.com/charmbracelet/lipgloss"

var (
	Text     = lipgloss.Color("#cdd6f4")
	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Sapphire = lipgloss.Color("#74c7ec")

	AccentColor = Mauve
	HiRed       = Red
)
