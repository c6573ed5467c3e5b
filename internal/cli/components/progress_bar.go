package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NamanBalaji/vidloader/internal/cli/styles"
	"github.com/NamanBalaji/vidloader/internal/state"
)

// ProgressBar returns a styled progress bar.
func ProgressBar(width int, percent float64, k state.Kind) string {
	if width <= 0 {
		return ""
	}

	percent = min(max(percent, 0), 1)

	filledWidth := int(float64(width) * percent)
	emptyWidth := width - filledWidth

	filledStr := strings.Repeat("█", filledWidth)
	emptyStr := strings.Repeat("░", emptyWidth)

	filledStyle := lipgloss.NewStyle().Foreground(stateStyle(k).GetForeground())

	return filledStyle.Render(filledStr) + styles.ProgressBarEmptyStyle.Render(emptyStr)
}

func stateStyle(k state.Kind) lipgloss.Style {
	switch k {
	case state.Running:
		return styles.StateRunning
	case state.Prefetching, state.KeyLoaded:
		return styles.StatePrefetching
	case state.Suspended:
		return styles.StateSuspended
	case state.Completed:
		return styles.StateCompleted
	case state.Canceled:
		return styles.StateCanceled
	case state.Failed:
		return styles.StateFailed
	default: // Waiting or Unknown
		return styles.StateWaiting
	}
}
