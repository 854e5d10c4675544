package tui

// TaskID identifies a task in the TUI progress display.
type TaskID int

const (
	TaskProcess     TaskID = iota // Classifying timelines
	TaskPostprocess               // Tagging core contributors
	TaskFeatures                  // Measuring pull request features
	TaskIndicators                // Aggregating indicators
)

// TaskStatus represents the current status of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
	StatusSkipped // no project needed work
	StatusStopped // interrupted
)

// Settled reports whether the status is final for a stage run.
func (s TaskStatus) Settled() bool {
	return s != StatusPending && s != StatusRunning
}

// Event is the interface for all TUI events.
type Event interface {
	isEvent()
}

// TaskEvent represents an update to a task's status.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string  // Optional message (e.g., "12/30 projects")
	Count    int     // Count of items (e.g., projects processed)
	Progress float64 // Progress from 0.0 to 1.0
	Error    error   // Error if status is StatusError
}

func (TaskEvent) isEvent() {}

// ProjectEvent reports the project a stage is currently working on.
type ProjectEvent struct {
	Task    TaskID
	Project string
}

func (ProjectEvent) isEvent() {}

// DoneEvent signals that all work is complete.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
