// Package pipeline runs the four analysis stages over every project in the
// data directory, skipping projects whose outputs already exist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/history"
	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/model"
	"github.com/spiffcs/stalemate/internal/store"
	"github.com/spiffcs/stalemate/internal/tui"
)

// ErrInterrupted matches errors returned when a stage is stopped by
// context cancellation.
var ErrInterrupted = errors.New("interrupted")

// InterruptError reports which stage was stopped.
type InterruptError struct {
	Description string
}

func (e *InterruptError) Error() string {
	return "Stop " + e.Description
}

// Is reports whether target is ErrInterrupted.
func (e *InterruptError) Is(target error) bool {
	return target == ErrInterrupted
}

// MetadataSource looks up repository metadata.
type MetadataSource interface {
	Get(ctx context.Context, project string) (model.Metadata, error)
}

// Stage is one step of the pipeline.
type Stage struct {
	Name        string
	Description string
	Task        tui.TaskID

	// Input is the table whose projects the stage processes.
	Input string
	// Outputs are the tables a completed project has.
	Outputs []string

	// Concurrent stages process projects in parallel. Other stages run
	// one project at a time with parallelism inside the project.
	Concurrent bool

	// Reset runs before a forced stage.
	Reset func() error

	Run func(ctx context.Context, project string) error
}

// Options configures a Pipeline.
type Options struct {
	Workers       int
	Force         bool
	ReferenceTime time.Time
	WarningWindow time.Duration

	StaleBot   string
	Automation string
	Ghost      string

	// Anchors maps projects to a configured stale bot adoption time.
	Anchors map[string]time.Time

	// Events receives progress for the TUI. Nil disables it.
	Events chan<- tui.Event

	// History records each stage run. Nil disables it.
	History *history.Store
}

// Pipeline holds the stores shared by every stage.
type Pipeline struct {
	store    *store.Store
	stats    *store.StatisticsLog
	metadata MetadataSource
	opts     Options
}

// New creates a pipeline over a data store. metadata may be nil, in which
// case projects are processed without repository metadata.
func New(st *store.Store, stats *store.StatisticsLog, metadata MetadataSource, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ReferenceTime.IsZero() {
		opts.ReferenceTime = constants.ReferenceTime
	}
	return &Pipeline{store: st, stats: stats, metadata: metadata, opts: opts}
}

// Stages returns the stages in run order.
func (p *Pipeline) Stages() []Stage {
	return []Stage{p.processStage(), p.postprocessStage(), p.featuresStage(), p.indicatorsStage()}
}

// Stage returns the stage with the given name.
func (p *Pipeline) Stage(name string) (Stage, bool) {
	for _, s := range p.Stages() {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// RunAll runs every stage in order, stopping at the first failure.
func (p *Pipeline) RunAll(ctx context.Context) error {
	for _, s := range p.Stages() {
		if err := p.Run(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Run runs a stage over every project of its input table.
func (p *Pipeline) Run(ctx context.Context, s Stage) error {
	run := history.Run{Started: time.Now().UTC(), Stage: s.Name, Forced: p.opts.Force}
	err := p.run(ctx, s, &run)
	p.record(run, err)
	return err
}

func (p *Pipeline) run(ctx context.Context, s Stage, run *history.Run) error {
	projects, err := p.store.Projects(s.Input)
	if err != nil {
		p.send(s.Task, tui.StatusError, tui.WithError(err))
		return fmt.Errorf("%s: %w", s.Name, err)
	}

	if p.opts.Force && s.Reset != nil {
		if err := s.Reset(); err != nil {
			return fmt.Errorf("%s: reset: %w", s.Name, err)
		}
	}

	var pending []string
	for _, project := range projects {
		if !p.opts.Force && p.fresh(s, project) {
			log.Stage(s.Name, project).Skip()
			continue
		}
		pending = append(pending, project)
	}

	run.Projects = len(projects)
	run.Skipped = len(projects) - len(pending)
	log.Info("stage started", "stage", s.Name, "projects", len(projects), "pending", len(pending))
	if len(pending) == 0 {
		p.send(s.Task, tui.StatusSkipped, tui.WithMessage("up to date"))
		return nil
	}
	p.send(s.Task, tui.StatusRunning)

	var done, lastSent atomic.Int64
	runOne := func(ctx context.Context, project string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tui.SendEvent(p.opts.Events, tui.ProjectEvent{Task: s.Task, Project: project})
		if err := s.Run(ctx, project); err != nil {
			return fmt.Errorf("%s %s: %w", s.Name, project, err)
		}
		p.progress(s, int(done.Add(1)), len(pending), &lastSent)
		return nil
	}

	if s.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Workers)
		for _, project := range pending {
			g.Go(func() error { return runOne(gctx, project) })
		}
		err = g.Wait()
	} else {
		for _, project := range pending {
			if err = runOne(ctx, project); err != nil {
				break
			}
		}
	}
	log.ProgressClear()
	run.Processed = int(done.Load())

	if ctx.Err() != nil {
		p.send(s.Task, tui.StatusStopped, tui.WithMessage("stopped"))
		return &InterruptError{Description: s.Description}
	}
	if err != nil {
		p.send(s.Task, tui.StatusError, tui.WithError(err))
		return err
	}
	p.send(s.Task, tui.StatusComplete, tui.WithCount(len(pending)))
	return nil
}

func (p *Pipeline) record(run history.Run, err error) {
	if p.opts.History == nil {
		return
	}
	run.Duration = time.Since(run.Started)
	switch {
	case errors.Is(err, ErrInterrupted):
		run.Outcome = history.OutcomeInterrupted
	case err != nil:
		run.Outcome = history.OutcomeFailed
	default:
		run.Outcome = history.OutcomeComplete
	}
	if err != nil {
		run.Error = err.Error()
	}
	if err := p.opts.History.Append(run); err != nil {
		log.Warn("failed to record run history", "error", err)
	}
}

// fresh reports whether every output of the stage exists for project.
func (p *Pipeline) fresh(s Stage, project string) bool {
	for _, table := range s.Outputs {
		if !p.store.Exists(table, project) {
			return false
		}
	}
	return true
}

// progress reports a finished project. TUI updates are throttled to
// TUIUpdateInterval, except for the last project.
func (p *Pipeline) progress(s Stage, done, total int, lastSent *atomic.Int64) {
	now := time.Now().UnixNano()
	last := lastSent.Load()
	if done == total || (now-last >= int64(constants.TUIUpdateInterval) && lastSent.CompareAndSwap(last, now)) {
		p.send(s.Task, tui.StatusRunning,
			tui.WithProgress(float64(done)/float64(total)),
			tui.WithMessage(fmt.Sprintf("%d/%d projects", done, total)))
	}

	step := max(total*constants.LogThrottlePercent/100, 1)
	if done%step == 0 || done == total {
		log.Progress("%s: %d/%d projects", s.Name, done, total)
	}
}

func (p *Pipeline) send(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if p.opts.Events == nil {
		return
	}
	tui.SendTaskEvent(p.opts.Events, task, status, opts...)
}

// lookupMetadata returns the metadata of a project, or a record holding only
// the project name when none is available.
func (p *Pipeline) lookupMetadata(ctx context.Context, project string) model.Metadata {
	if p.metadata == nil {
		return model.Metadata{Project: project}
	}
	meta, err := p.metadata.Get(ctx, project)
	if err != nil {
		log.Warn("no repository metadata", "project", project, "error", err)
		return model.Metadata{Project: project}
	}
	return meta
}
