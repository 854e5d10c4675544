package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spiffcs/stalemate/config"
	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/history"
	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/metadata"
	"github.com/spiffcs/stalemate/internal/pipeline"
	"github.com/spiffcs/stalemate/internal/store"
	"github.com/spiffcs/stalemate/internal/tui"
)

// stageRuntime bundles TUI-related state that's threaded through a pipeline command.
type stageRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
}

// setupRuntime starts profiling, initializes logging and returns a cleanup
// function that stops the profiler.
func setupRuntime(opts *Options) (*stageRuntime, func(), error) {
	profiler := newProfiler(opts)
	if err := profiler.start(); err != nil {
		return nil, nil, err
	}

	useTUI := shouldUseTUI(opts)

	// Initialize logging - suppress logs during TUI to avoid interleaving with display
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	return &stageRuntime{useTUI: useTUI}, profiler.stop, nil
}

// startTUI starts the TUI goroutine if TUI mode is enabled. interrupt is
// called when the user presses Ctrl+C, since the terminal is in raw mode and
// no signal is delivered.
func (rt *stageRuntime) startTUI(tasks []tui.Task, interrupt func()) {
	if !rt.useTUI {
		return
	}
	events := make(chan tui.Event, 100)
	done := make(chan error, 1)
	go func() {
		err := tui.Run(events, tui.WithTasks(tasks), tui.WithInterrupt(interrupt))
		// Settled task events block, keep receiving if the display exits early.
		for range events {
		}
		done <- err
	}()
	rt.events, rt.tuiDone = events, done
}

// close closes the event channel and waits for the TUI to finish.
func (rt *stageRuntime) close() {
	if rt.events == nil {
		return
	}
	close(rt.events)
	if err := <-rt.tuiDone; err != nil {
		log.Warn("progress display failed", "error", err)
	}
	rt.events = nil
}

// loadSettings loads the config files and applies command-line overrides.
func loadSettings(opts *Options) (config.Settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Workers > 0 {
		cfg.Workers = &opts.Workers
	}
	return cfg.Settings()
}

// openStores opens the data directory. The metadata database is optional:
// when it does not exist the returned source is nil.
func openStores(s config.Settings) (*store.Store, *store.StatisticsLog, *metadata.DB, error) {
	if _, err := os.Stat(s.DataDir); err != nil {
		return nil, nil, nil, fmt.Errorf("data directory: %w", err)
	}
	st := store.New(s.DataDir)
	stats := store.NewStatisticsLog(filepath.Join(s.DataDir, constants.StatisticsFile))

	if _, err := os.Stat(s.MetadataDB); err != nil {
		log.Debug("no metadata database, repository age and stars are unknown", "path", s.MetadataDB)
		return st, stats, nil, nil
	}
	db, err := metadata.Open(s.MetadataDB)
	if err != nil {
		return nil, nil, nil, err
	}
	return st, stats, db, nil
}

// newPipeline builds the pipeline from resolved settings.
func newPipeline(s config.Settings, opts *Options, st *store.Store, stats *store.StatisticsLog, db *metadata.DB, events chan<- tui.Event) *pipeline.Pipeline {
	var source pipeline.MetadataSource
	if db != nil {
		source = db
	}
	return pipeline.New(st, stats, source, pipeline.Options{
		Workers:       s.Workers,
		Force:         opts.Force,
		ReferenceTime: s.ReferenceTime,
		WarningWindow: s.WarningWindow,
		StaleBot:      s.StaleBot,
		Automation:    s.Automation,
		Ghost:         s.Ghost,
		Anchors:       s.Anchors,
		Events:        events,
		History:       history.NewStore(filepath.Join(s.DataDir, history.FileName)),
	})
}
