package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent    = lipgloss.Color("#0E7490") // teal
	subtle    = lipgloss.Color("#6C6C6C")
	dimmed    = lipgloss.Color("#888888")
	highlight = lipgloss.Color("#E8E8E8")
	surface   = lipgloss.Color("#2A2A2A")
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(accent).
	Padding(0, 1)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			PaddingRight(2)

	headerFocusStyle = headerStyle.
				Foreground(highlight).
				Background(accent)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	selectedStyle = lipgloss.NewStyle().
			Background(surface).
			Foreground(highlight).
			Bold(true).
			PaddingRight(2)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(dimmed).
			Strikethrough(true).
			PaddingRight(2)

	cursorStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true).
			PaddingLeft(3)
)

var (
	filterActiveStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	filterInactiveStyle = lipgloss.NewStyle().Foreground(subtle)
	footerKeyStyle      = lipgloss.NewStyle().Foreground(accent).Bold(true)
	footerDescStyle     = lipgloss.NewStyle().Foreground(subtle)
	footerStyle         = lipgloss.NewStyle().MarginTop(1)
)
