package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used to draw the composer.
type Theme struct {
	Header      lipgloss.Style
	Label       lipgloss.Style
	Message     lipgloss.Style
	Placeholder lipgloss.Style
	Cursor      lipgloss.Style
	Focused     lipgloss.Style
	Blurred     lipgloss.Style
	Help        lipgloss.Style
}

func DefaultTheme() Theme {
	accent := lipgloss.Color("#7D56F4")
	muted := lipgloss.Color("241")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),
		Message: lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Cursor: lipgloss.NewStyle().Reverse(true),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Blurred: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),
	}
}
