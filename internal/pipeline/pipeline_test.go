package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/history"
	"github.com/spiffcs/stalemate/internal/model"
	"github.com/spiffcs/stalemate/internal/store"
	"github.com/spiffcs/stalemate/internal/tui"
)

const project = "acme/widgets"

var opened = time.Date(2021, 1, 10, 12, 0, 0, 0, time.UTC)

type fakeMetadata map[string]model.Metadata

func (f fakeMetadata) Get(_ context.Context, project string) (model.Metadata, error) {
	m, ok := f[project]
	if !ok {
		return model.Metadata{}, errors.New("not found")
	}
	return m, nil
}

func day(n int) time.Time {
	return opened.Add(time.Duration(n) * 24 * time.Hour)
}

// seed writes a timeline with one pull request closed by the stale bot and
// one merged by a maintainer.
func seed(t *testing.T) (*store.Store, *store.StatisticsLog) {
	t.Helper()
	dir := t.TempDir()
	st := store.New(dir)
	events := []model.Event{
		{PullNumber: 1, Kind: model.EventPulled, Actor: "alice", Time: day(0), State: model.StateClosed},
		{PullNumber: 1, Kind: model.EventCommitted, Actor: "alice", Time: day(0), SHA: "a1"},
		{PullNumber: 1, Kind: model.EventLabeled, Actor: constants.StaleBotActor, Time: day(60), Label: "stale"},
		{PullNumber: 1, Kind: model.EventClosed, Actor: constants.StaleBotActor, Time: day(67)},
		{PullNumber: 2, Kind: model.EventPulled, Actor: "bob", Time: day(70), State: model.StateClosed},
		{PullNumber: 2, Kind: model.EventCommented, Actor: "carol", Time: day(71), Body: "looks good"},
		{PullNumber: 2, Kind: model.EventMerged, Actor: "carol", Time: day(72), CommitID: "c2"},
		{PullNumber: 2, Kind: model.EventClosed, Actor: "carol", Time: day(72)},
	}
	if err := st.WriteEvents(context.Background(), constants.TableTimelines, project, events); err != nil {
		t.Fatalf("WriteEvents() error = %v", err)
	}
	return st, store.NewStatisticsLog(filepath.Join(dir, constants.StatisticsFile))
}

func TestRunAll(t *testing.T) {
	st, stats := seed(t)
	meta := fakeMetadata{project: {Project: project, CreatedAt: day(-400), Language: "Go", Watchers: 12}}
	p := New(st, stats, meta, Options{Workers: 2})

	if err := p.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}

	for _, table := range []string{
		constants.TableDataframe,
		constants.TableDataset,
		constants.TableFeatures,
		constants.TableFeaturesFixed,
		constants.TableActivity,
		constants.TableIndicators,
	} {
		if !st.Exists(table, project) {
			t.Errorf("expected %s output for %s", table, project)
		}
	}

	rows, err := stats.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 statistics row, got %d", len(rows))
	}
	if rows[0].Language != "Go" || rows[0].Pulls != 2 {
		t.Errorf("unexpected statistics %+v", rows[0])
	}
}

func TestRunSkipsFreshProjects(t *testing.T) {
	st, stats := seed(t)
	p := New(st, stats, nil, Options{Workers: 1})
	ctx := context.Background()

	if err := p.RunAll(ctx); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if err := p.RunAll(ctx); err != nil {
		t.Fatalf("second RunAll() error = %v", err)
	}
	rows, err := stats.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("a second run should not append statistics, got %d rows", len(rows))
	}

	forced := New(st, stats, nil, Options{Workers: 1, Force: true})
	if err := forced.RunAll(ctx); err != nil {
		t.Fatalf("forced RunAll() error = %v", err)
	}
	rows, err = stats.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("a forced run should rewrite statistics, got %d rows", len(rows))
	}
}

func TestRunInterrupted(t *testing.T) {
	st, stats := seed(t)
	p := New(st, stats, nil, Options{Workers: 1})
	s, ok := p.Stage("process")
	if !ok {
		t.Fatal("process stage not found")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, s)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Run() error = %v, want ErrInterrupted", err)
	}
	if err.Error() != "Stop processing data" {
		t.Errorf("Error() = %q", err.Error())
	}
	if st.Exists(constants.TableDataframe, project) {
		t.Error("interrupted stage should not write output")
	}
}

func TestRunRecordsHistory(t *testing.T) {
	st, stats := seed(t)
	runs := history.NewStore(filepath.Join(st.Dir(), history.FileName))
	p := New(st, stats, nil, Options{Workers: 1, History: runs})
	s, _ := p.Stage("process")

	if err := p.Run(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	forced := New(st, stats, nil, Options{Workers: 1, Force: true, History: runs})
	s, _ = forced.Stage("process")
	_ = forced.Run(ctx, s)

	got := runs.Recent(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(got))
	}
	if got[0].Processed != 1 || got[0].Outcome != history.OutcomeComplete {
		t.Errorf("first run = %+v", got[0])
	}
	if got[1].Skipped != 1 || got[1].Processed != 0 {
		t.Errorf("second run should skip the fresh project, got %+v", got[1])
	}
	if got[2].Outcome != history.OutcomeInterrupted || !got[2].Forced || got[2].Error != "Stop processing data" {
		t.Errorf("third run = %+v", got[2])
	}
}

func TestRunMissingInput(t *testing.T) {
	p := New(store.New(t.TempDir()), nil, nil, Options{})
	s, _ := p.Stage("features")
	if err := p.Run(context.Background(), s); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}
}

func TestRunSkipsProjectsWithoutStaleActivity(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir)
	events := []model.Event{
		{PullNumber: 1, Kind: model.EventPulled, Actor: "alice", Time: day(0), State: model.StateOpen},
	}
	if err := st.WriteEvents(context.Background(), constants.TableTimelines, project, events); err != nil {
		t.Fatal(err)
	}
	p := New(st, nil, nil, Options{Workers: 1})

	if err := p.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if !st.Exists(constants.TableFeatures, project) {
		t.Error("expected features output")
	}
	if st.Exists(constants.TableIndicators, project) {
		t.Error("project without stale activity should have no indicators")
	}
	if _, err := os.Stat(filepath.Join(dir, constants.StatisticsFile)); err == nil {
		t.Error("nil statistics log should not write a file")
	}
}

func TestRunSendsEvents(t *testing.T) {
	st, stats := seed(t)
	events := make(chan tui.Event, 100)
	p := New(st, stats, nil, Options{Workers: 1, Events: events})
	s, _ := p.Stage("process")

	if err := p.Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	close(events)

	var last tui.TaskEvent
	sawProject := false
	for e := range events {
		switch e := e.(type) {
		case tui.TaskEvent:
			last = e
		case tui.ProjectEvent:
			sawProject = e.Project == project
		}
	}
	if !sawProject {
		t.Error("expected a project event")
	}
	if last.Task != tui.TaskProcess || last.Status != tui.StatusComplete || last.Count != 1 {
		t.Errorf("unexpected final event %+v", last)
	}
}
