package cli

import "github.com/charmbracelet/lipgloss"

// Output styles for command results.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89b4fa"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a6e3a1"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f9e2af"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f38ba8"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6c7086"))

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#fab387"))
)
