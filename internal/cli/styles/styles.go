package styles

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Base     = lipgloss.Color("#1e1e2e")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Surface0 = lipgloss.Color("#313244")

	Mauve  = lipgloss.Color("#cba6f7")
	Red    = lipgloss.Color("#f38ba8")
	Peach  = lipgloss.Color("#fab387")
	Yellow = lipgloss.Color("#f9e2af")
	Green  = lipgloss.Color("#a6e3a1")
	Teal   = lipgloss.Color("#94e2d5")
	Blue   = lipgloss.Color("#89b4fa")
)

var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	ListItemStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(Text)

	HintStyle = lipgloss.NewStyle().Foreground(Subtext0)

	ProgressBarEmptyStyle = lipgloss.NewStyle().Foreground(Surface0)

	StateRunning     = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	StateWaiting     = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	StatePrefetching = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	StateSuspended   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	StateCompleted   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StateCanceled    = lipgloss.NewStyle().Foreground(Mauve).Bold(true)
	StateFailed      = lipgloss.NewStyle().Foreground(Red).Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)
)
