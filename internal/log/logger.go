package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: stage progress, skipped projects
	LevelDebug        // -vv: per project timing, table paths
	LevelTrace        // -vvv: every table write
)

const slogLevelTrace = slog.Level(-8)

var (
	mu         sync.Mutex
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	inProgress bool // an unterminated progress line is on screen
)

// Initialize sets up the global logger with the specified verbosity level
func Initialize(level int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	verbosity = level
	output = w

	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	logger = slog.New(slog.NewTextHandler(lockedWriter{}, &slog.HandlerOptions{
		Level: slogLevel,
	}))
}

// lockedWriter forwards to the current output. Callers hold mu.
type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	return output.Write(p)
}

func logAt(level slog.Level, minVerbosity int, msg string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbosity < minVerbosity {
		return
	}
	clearProgress()
	logger.Log(context.Background(), level, msg, args...)
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	logAt(slog.LevelInfo, LevelInfo, msg, args...)
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	logAt(slog.LevelDebug, LevelDebug, msg, args...)
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	logAt(slogLevelTrace, LevelTrace, msg, args...)
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	logAt(slog.LevelWarn, LevelQuiet, msg, args...)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	logAt(slog.LevelError, LevelQuiet, msg, args...)
}

// Progress prints a progress message with carriage return (no newline).
// Only shown at info level or higher.
func Progress(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo {
		inProgress = true
		_, _ = fmt.Fprintf(output, "\r"+format, args...)
	}
}

// ProgressClear clears the current progress line
func ProgressClear() {
	mu.Lock()
	defer mu.Unlock()
	if inProgress {
		_, _ = fmt.Fprint(output, "\r\033[K")
		inProgress = false
	}
}

func clearProgress() {
	if inProgress {
		_, _ = fmt.Fprintln(output)
		inProgress = false
	}
}

// StageLogger scopes log lines to a pipeline stage and project.
type StageLogger struct {
	stage   string
	project string
	started time.Time
}

// Stage returns a logger for one project of a stage and records the start.
func Stage(stage, project string) *StageLogger {
	Debug("stage started", "stage", stage, "project", project)
	return &StageLogger{stage: stage, project: project, started: time.Now()}
}

func (s *StageLogger) with(args []any) []any {
	return append([]any{"stage", s.stage, "project", s.project}, args...)
}

// Info logs at info level with stage attributes.
func (s *StageLogger) Info(msg string, args ...any) {
	Info(msg, s.with(args)...)
}

// Debug logs at debug level with stage attributes.
func (s *StageLogger) Debug(msg string, args ...any) {
	Debug(msg, s.with(args)...)
}

// Warn logs at warn level with stage attributes.
func (s *StageLogger) Warn(msg string, args ...any) {
	Warn(msg, s.with(args)...)
}

// Skip records that the project's outputs are already fresh.
func (s *StageLogger) Skip() {
	Info("skipping, outputs exist", s.with(nil)...)
}

// Done records completion and the elapsed time.
func (s *StageLogger) Done(args ...any) {
	args = append(args, "elapsed", time.Since(s.started).Round(time.Millisecond))
	Info("completed", s.with(args)...)
}

func init() {
	Initialize(LevelQuiet, os.Stderr)
}
