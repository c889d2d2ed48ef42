package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	clockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8A8A8"))

	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	optionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFAA00")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)
