package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NamanBalaji/vidloader/internal/cli/styles"
	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/state"
)

const maxNameLen = 30

// Item renders a stored record as a three-line entry for the given width.
func Item(rec item.Record, width int) string {
	name, ok := rec.Title()
	if !ok {
		name = rec.Identifier()
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	progress := rec.Progress()
	if rec.State().Kind() == state.Completed {
		progress = 1.0
	}

	label := StateLabel(rec.State())
	percent := lipgloss.NewStyle().Width(8).Align(lipgloss.Right).Render(fmt.Sprintf("%.1f%%", progress*100))

	remaining := max(width-maxNameLen-lipgloss.Width(label)-lipgloss.Width(percent)-3, 2)
	line1 := fmt.Sprintf("%-*s %s%s%s", maxNameLen, name, label, strings.Repeat(" ", remaining), percent)

	line2 := styles.ListItemStyle.Render(ProgressBar(max(width-4, 10), progress, rec.State().Kind()))

	info := []string{rec.Identifier(), formatSize(rec.DownloadedBytes())}
	if path, ok := rec.Path(); ok {
		info = append(info, path)
	}
	line3 := styles.ListItemStyle.Faint(true).Render(strings.Join(info, "  "))

	return styles.ListItemStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, line1, line2, line3))
}

// StateLabel renders the lifecycle state with its symbol and color.
func StateLabel(s state.State) string {
	var label string
	switch s.Kind() {
	case state.Waiting:
		label = "○ waiting"
	case state.Prefetching:
		label = "◌ prefetching"
	case state.KeyLoaded:
		label = "◍ key loaded"
	case state.Running:
		label = "● running"
	case state.Suspended:
		label = "❚❚ suspended"
	case state.Completed:
		label = "✔ completed"
	case state.Canceled:
		label = "⊘ canceled"
	case state.Failed:
		label = "✖ failed"
		if s.Reason() != "" {
			label += ": " + s.Reason()
		}
	default:
		label = "unknown"
	}

	return stateStyle(s.Kind()).Render(label)
}

// formatSize converts bytes into a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1000
	if bytes < 0 {
		return "Unknown"
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	d := float64(bytes)
	exp := 0
	for d >= unit {
		d /= unit
		exp++
	}
	prefixes := "kMGTPE"
	idx := min(exp-1, len(prefixes)-1)

	return fmt.Sprintf("%.1f %cB", d, prefixes[idx])
}
