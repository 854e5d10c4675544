package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the stage progress display.
type Model struct {
	tasks     []Task
	spinner   spinner.Model
	progress  progress.Model
	events    <-chan Event
	done      bool
	stopping  bool
	interrupt func()
}

// Progress bar width bounds. lineReserve is the room kept for the rest of a
// task line.
const (
	lineReserve = 80
	minBarWidth = 10
	maxBarWidth = 25
)

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// ModelOption is a functional option for configuring a Model.
type ModelOption func(*Model)

// WithTasks sets the tasks to display in the TUI.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// WithInterrupt sets the function called when the user presses Ctrl+C.
// The display keeps running until the event channel is closed.
func WithInterrupt(interrupt func()) ModelOption {
	return func(m *Model) {
		m.interrupt = interrupt
	}
}

// StageTasks returns the task list of a full pipeline run.
func StageTasks() []Task {
	return []Task{
		NewTask(TaskProcess, "Classifying timelines"),
		NewTask(TaskPostprocess, "Tagging core contributors"),
		NewTask(TaskFeatures, "Measuring features"),
		NewTask(TaskIndicators, "Aggregating indicators"),
	}
}

// TasksFor returns the tasks among StageTasks with the given IDs.
func TasksFor(ids ...TaskID) []Task {
	var tasks []Task
	for _, t := range StageTasks() {
		for _, id := range ids {
			if t.ID == id {
				tasks = append(tasks, t)
			}
		}
	}
	return tasks
}

// NewModel creates a new TUI model.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(maxBarWidth),
		progress.WithoutPercentage(),
	)

	m := Model{
		tasks:    StageTasks(),
		spinner:  s,
		progress: p,
		events:   events,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() != "ctrl+c" {
			return m, nil
		}
		if m.interrupt == nil {
			return m, tea.Quit
		}
		if !m.stopping {
			m.stopping = true
			m.interrupt()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-lineReserve, minBarWidth), maxBarWidth)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case TaskEvent:
		var cmd tea.Cmd
		m, cmd = m.updateTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case ProjectEvent:
		for i := range m.tasks {
			if m.tasks[i].ID == msg.Task {
				m.tasks[i].Project = msg.Project
			}
		}
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// updateTask updates a task based on a TaskEvent.
func (m Model) updateTask(e TaskEvent) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := range m.tasks {
		if m.tasks[i].ID != e.Task {
			continue
		}
		m.tasks[i].Status = e.Status
		if e.Message != "" {
			m.tasks[i].Message = e.Message
		}
		if e.Count > 0 {
			m.tasks[i].Count = e.Count
		}
		if e.Progress > 0 {
			m.tasks[i].Progress = e.Progress
			cmd = m.progress.SetPercent(e.Progress)
		}
		if e.Error != nil {
			m.tasks[i].Error = e.Error
		}
		if e.Status != StatusRunning {
			m.tasks[i].Project = ""
		}
		break
	}
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	for _, task := range m.tasks {
		b.WriteString(task.View(m.spinner.View(), m.progress))
		b.WriteString("\n")
	}
	switch {
	case m.stopping:
		b.WriteString(stopStyle.Render("\n  Stopping..."))
	case !m.done:
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to stop"))
	}
	b.WriteString("\n")
	return b.String()
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
