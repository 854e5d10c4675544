package core

import (
	"testing"
	"time"

	"github.com/spiffcs/stalemate/internal/model"
)

var base = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func row(pull int, kind model.EventKind, actor string, t time.Time, contributor bool, status model.Status) model.Row {
	return model.Row{
		Event:         model.Event{PullNumber: pull, Kind: kind, Actor: actor, Time: t},
		Status:        status,
		IsContributor: contributor,
	}
}

func TestTag(t *testing.T) {
	closedByBob := model.Status{IsClosed: true, OpenedAt: day(0), ClosedAt: day(2), ClosedBy: "bob", ResolvedAt: day(2), ResolvedBy: "bob"}
	mergedByCarol := model.Status{IsMerged: true, OpenedAt: day(3), MergedAt: day(5), MergedBy: "carol", ResolvedAt: day(5), ResolvedBy: "carol"}
	selfClosed := model.Status{IsClosed: true, OpenedAt: day(6), ClosedAt: day(7), ClosedBy: "dave", ResolvedAt: day(7), ResolvedBy: "dave"}
	ghostMerged := model.Status{IsMerged: true, OpenedAt: day(8), MergedAt: day(9), MergedBy: "ghost", ResolvedAt: day(9), ResolvedBy: "ghost"}

	rows := []model.Row{
		row(1, model.EventPulled, "alice", day(0), true, closedByBob),
		row(1, model.EventCommented, "bob", day(1), false, closedByBob),
		row(1, model.EventClosed, "bob", day(2), false, closedByBob),
		row(2, model.EventPulled, "bob", day(3), true, mergedByCarol),
		row(2, model.EventCommented, "carol", day(4), false, mergedByCarol),
		row(2, model.EventMerged, "carol", day(5), false, mergedByCarol),
		row(3, model.EventPulled, "dave", day(6), true, selfClosed),
		row(3, model.EventClosed, "dave", day(7), true, selfClosed),
		row(4, model.EventPulled, "alice", day(8), true, ghostMerged),
		row(4, model.EventMerged, "ghost", day(9), false, ghostMerged),
		row(4, model.EventCommented, "bob", day(10), false, ghostMerged),
	}

	got := Tag(rows, "")

	want := []bool{
		false, // alice never closes or merges
		false, // bob before his first close
		true,  // bob closing alice's pull
		true,  // bob later, on another pull
		false, // carol before merging
		true,  // carol merging
		false, // dave opening
		false, // dave closing his own pull
		false,
		false, // ghost is never core
		true,  // bob stays core
	}
	for i, r := range got {
		if r.IsCore != want[i] {
			t.Errorf("row %d (%s by %s): IsCore = %v, want %v", i, r.Kind, r.Actor, r.IsCore, want[i])
		}
	}
}

func TestTagMonotonic(t *testing.T) {
	merged := model.Status{IsMerged: true, MergedAt: day(2), MergedBy: "bob", ResolvedAt: day(2)}
	var rows []model.Row
	for i := 0; i < 6; i++ {
		rows = append(rows, row(1, model.EventCommented, "bob", day(i), false, merged))
	}

	seen := false
	for _, r := range Tag(rows, "") {
		if seen && !r.IsCore {
			t.Fatalf("IsCore flipped back to false at %v", r.Time)
		}
		seen = seen || r.IsCore
	}
	if !seen {
		t.Fatal("expected bob to become core")
	}
}

func TestThresholdsNoPrivilegedAction(t *testing.T) {
	open := model.Status{IsOpen: true, OpenedAt: day(0)}
	rows := []model.Row{
		row(1, model.EventPulled, "alice", day(0), true, open),
		row(1, model.EventCommented, "bob", day(1), false, open),
	}
	if got := Thresholds(rows, ""); len(got) != 0 {
		t.Errorf("expected no thresholds, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	created := base.AddDate(-1, 0, 0)
	staledMerged := model.Status{IsMerged: true, IsStaled: true}
	staleClosed := model.Status{IsClosed: true, IsStaled: true, IsStaleClosed: true}
	open := model.Status{IsOpen: true}

	rows := []model.Row{
		row(1, model.EventPulled, "alice", day(0), true, staledMerged),
		row(2, model.EventPulled, "bob", day(1), true, staleClosed),
		row(3, model.EventPulled, "alice", day(2), true, open),
		{Event: model.Event{PullNumber: 3, Kind: model.EventCommented, Actor: "carol", Time: day(3)}, IsCore: true},
	}

	got := Summarize("acme/widgets", rows, model.Metadata{CreatedAt: created, Language: "Go", Watchers: 42})

	if got.Pulls != 3 || got.Open != 1 || got.Closed != 1 || got.Merged != 1 {
		t.Errorf("unexpected counts %+v", got)
	}
	if got.Contributors != 2 || got.Maintainers != 1 {
		t.Errorf("contributors/maintainers = %d/%d, want 2/1", got.Contributors, got.Maintainers)
	}
	if got.Staled != 2 || got.StaledMerged != 1 || got.StaleClosed != 1 || got.StaleClosedMerged != 0 {
		t.Errorf("unexpected stale counts %+v", got)
	}
	if got.Language != "Go" || got.Stars != 42 {
		t.Errorf("unexpected metadata fields %+v", got)
	}
	if got.Age < 12 || got.Age > 12.2 {
		t.Errorf("Age = %v, want about 12 months", got.Age)
	}
}
