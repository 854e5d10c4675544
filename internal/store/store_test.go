package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/stalemate/internal/model"
)

var t0 = time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

func TestRowsKeepNullTimestamps(t *testing.T) {
	s := New(t.TempDir())
	rows := []model.Row{{
		Event:         model.Event{PullNumber: 7, Kind: model.EventPulled, Actor: "alice", Time: t0, State: "open", Body: "multi\nline, \"quoted\""},
		Status:        model.Status{IsOpen: true, OpenedAt: t0},
		IsContributor: true,
	}}

	if err := s.WriteRows(context.Background(), "dataframe", "acme/widgets", rows, false); err != nil {
		t.Fatalf("WriteRows() error = %v", err)
	}
	got, err := s.ReadRows("dataframe", "acme/widgets")
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(s.Path("dataframe", "acme/widgets"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(strings.SplitN(string(data), "\n", 2)[0], "is_core") {
		t.Error("untagged rows should not carry is_core")
	}
}

func TestTaggedRows(t *testing.T) {
	s := New(t.TempDir())
	rows := []model.Row{{Event: model.Event{PullNumber: 1, Kind: model.EventMerged, Actor: "bob", Time: t0}, IsCore: true}}
	if err := s.WriteRows(context.Background(), "dataset", "acme/widgets", rows, true); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadRows("dataset", "acme/widgets")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].IsCore {
		t.Errorf("ReadRows() = %+v, want one core row", got)
	}
}

func TestPatchFiles(t *testing.T) {
	s := New(t.TempDir())
	patches := []model.Patch{
		{PullNumber: 1, SHA: "abc", AddedLines: 3, DeletedLines: 1, Files: []string{"a.go", "dir/b, c.go"}},
		{PullNumber: 1, SHA: "def", Files: []string{}},
	}
	if err := s.WritePatches(context.Background(), "patches", "acme/widgets", patches); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadPatches("patches", "acme/widgets")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(patches, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
}

func TestFeaturesAndIndicators(t *testing.T) {
	s := New(t.TempDir())
	f := model.Feature{Project: "acme/widgets", PullNumber: 3, Contributor: "carol", Status: model.Status{IsMerged: true, OpenedAt: t0, MergedAt: t0.Add(time.Hour), ResolvedAt: t0.Add(time.Hour)}}
	f.PRCommits = 2
	f.ReviewMeanLatency = 1.5
	if err := s.WriteFeatures(context.Background(), "features", "acme/widgets", []model.Feature{f}); err != nil {
		t.Fatal(err)
	}
	features, err := s.ReadFeatures("features", "acme/widgets")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]model.Feature{f}, features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}

	ind := model.Indicator{
		ResolvedMonth: -2,
		IsMerged:      true,
		Means:         f.Characteristics(),
		Activity:      model.Activity{Month: -2, OpenedPulls: 4, Staled: 1},
		Time:          1,
		Adoption:      model.Adoption{FirstStaleTime: t0, LastStaleTime: t0, PullsAtAdoption: 9},
	}
	if err := s.WriteIndicators(context.Background(), "indicators", "acme/widgets", []model.Indicator{ind}); err != nil {
		t.Fatal(err)
	}
	indicators, err := s.ReadIndicators("indicators", "acme/widgets")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]model.Indicator{ind}, indicators); diff != "" {
		t.Errorf("indicators mismatch (-want +got):\n%s", diff)
	}
}

func TestProjects(t *testing.T) {
	s := New(t.TempDir())
	for _, p := range []string{"zeta/app", "acme/widgets", "acme/api"} {
		if err := s.WriteEvents(context.Background(), "timelines", p, nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Projects("timelines")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"acme/api", "acme/widgets", "zeta/app"}, got); diff != "" {
		t.Errorf("Projects() mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Projects("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Projects(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.ReadEvents("timelines", "acme/none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadEvents(missing) error = %v, want ErrNotFound", err)
	}
}

func TestWriteCancelledLeavesNothing(t *testing.T) {
	s := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.WriteEvents(ctx, "timelines", "acme/widgets", []model.Event{{PullNumber: 1, Kind: model.EventPulled, Time: t0}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteEvents() error = %v, want context.Canceled", err)
	}
	if s.Exists("timelines", "acme/widgets") {
		t.Error("cancelled write left a table behind")
	}
	entries, _ := os.ReadDir(filepath.Dir(s.Path("timelines", "acme/widgets")))
	if len(entries) != 0 {
		t.Errorf("cancelled write left %d temp files", len(entries))
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2019, 4, 20, 5, 46, 48, 0, time.UTC)
	for _, in := range []string{
		"2019-04-20T05:46:48Z",
		"2019-04-20 05:46:48+00:00",
		"2019-04-20 05:46:48",
		"2019-04-20T07:46:48+02:00",
	} {
		got, err := ParseTime(in)
		if err != nil {
			t.Errorf("ParseTime(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("ParseTime(yesterday) should fail")
	}
}

func TestStatisticsLog(t *testing.T) {
	l := NewStatisticsLog(filepath.Join(t.TempDir(), "statistics.csv"))

	if got, err := l.ReadAll(); err != nil || got != nil {
		t.Fatalf("ReadAll() on missing file = %v, %v", got, err)
	}

	first := model.Statistics{Project: "acme/widgets", Language: "Go", Stars: 10, Age: 12.5, Pulls: 3, Staled: 1, StaledMerged: 1}
	second := model.Statistics{Project: "acme/api", Pulls: 1, Open: 1}
	for _, s := range []model.Statistics{first, second} {
		if err := l.Append(s); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]model.Statistics{first, second}, got); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}

	data, _ := os.ReadFile(l.Path())
	if n := strings.Count(string(data), "project,language"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}

	if err := l.Reset(); err != nil {
		t.Fatal(err)
	}
	if got, _ := l.ReadAll(); len(got) != 0 {
		t.Errorf("ReadAll() after Reset = %v, want empty", got)
	}
}
