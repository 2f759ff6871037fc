package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#58a6ff"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1f6feb"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e"))

	channelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7ee787"))

	laterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d29922"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f85149"))

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7ee787")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c9d1d9")).
			Background(lipgloss.Color("#21262d"))

	paneBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#30363d")).
			Padding(0, 1)

	activePaneBorder = paneBorder.
				BorderForeground(lipgloss.Color("#58a6ff"))
)
