package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorSubtle    = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("81")
	colorError     = lipgloss.Color("196")
	colorSuccess   = lipgloss.Color("40")
)

var (
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true).Padding(0, 1)
	avatarStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorHighlight).Padding(0, 2)
	statusStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
)
