package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Task is one pipeline stage in the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Message  string
	Count    int // projects processed, set when the stage completes
	Progress float64
	Project  string // project being worked on while running
	Error    error
}

// NewTask creates a pending task.
func NewTask(id TaskID, name string) Task {
	return Task{ID: id, Name: name, Status: StatusPending}
}

// View renders the task line: icon, stage name, then either the progress bar
// with the current project or the settled outcome.
func (t Task) View(spinnerFrame string, prog progress.Model) string {
	name := taskNameStyle.Render(t.Name)
	if t.Status == StatusPending {
		name = taskDimStyle.Render(t.Name)
	}
	parts := []string{" ", StatusIcon(t.Status, spinnerFrame), name}

	switch {
	case t.Status == StatusRunning && t.Progress > 0:
		parts = append(parts, fmt.Sprintf("%s %3d%%", prog.ViewAs(t.Progress), int(t.Progress*100)))
		if t.Message != "" {
			parts = append(parts, messageStyle.Render("("+t.Message+")"))
		}
	case t.Message != "":
		parts = append(parts, messageStyle.Render(t.Message))
	case t.Count > 0:
		parts = append(parts, messageStyle.Render(fmt.Sprintf("(%d projects)", t.Count)))
	}

	if t.Status == StatusRunning && t.Project != "" {
		parts = append(parts, projectStyle.Render(t.Project))
	}
	if t.Error != nil {
		parts = append(parts, errorStyle.Render(t.Error.Error()))
	}
	return strings.Join(parts, " ")
}
