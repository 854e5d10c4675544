package tui

import "github.com/charmbracelet/lipgloss"

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

var (
	taskNameStyle = fg("252")
	taskDimStyle  = fg("240")
	messageStyle  = fg("244")
	errorStyle    = fg("196")
	spinnerStyle  = fg("86")
	projectStyle  = fg("220")
	footerStyle   = fg("240").MarginTop(1)
	stopStyle     = fg("214").Bold(true)

	// Icons of the settled statuses; a running task shows the spinner.
	statusIcons = map[TaskStatus]string{
		StatusPending:  fg("240").Render("○"),
		StatusComplete: fg("46").Render("✓"),
		StatusError:    fg("196").Render("✗"),
		StatusSkipped:  fg("240").Render("–"),
		StatusStopped:  fg("214").Render("■"),
	}
)

// StatusIcon returns the icon shown in front of a task.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	if status == StatusRunning {
		return spinnerStyle.Render(spinnerFrame)
	}
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return statusIcons[StatusPending]
}
