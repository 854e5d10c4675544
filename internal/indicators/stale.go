// Package indicators aggregates per pull request features and stale bot
// events into monthly project indicators relative to stale bot adoption.
package indicators

import (
	"errors"
	"sort"
	"time"

	"github.com/spiffcs/stalemate/internal/duration"
	"github.com/spiffcs/stalemate/internal/model"
)

// ErrNoStaleActivity is returned for projects without any stale event at
// or after the anchor; such projects cannot be placed relative to adoption.
var ErrNoStaleActivity = errors.New("no stale bot activity")

// StaleEvent is a stale-flagged timeline row placed in a month relative
// to the adoption anchor.
type StaleEvent struct {
	model.Row
	Month     int
	IsWarning bool
}

// Episode holds all stale events of a project and the span they cover.
type Episode struct {
	Anchor time.Time
	Last   time.Time
	Events []StaleEvent
}

// Period returns the span of stale activity in months.
func (e Episode) Period() float64 {
	return duration.Months(e.Last.Sub(e.Anchor))
}

// StaleEvents isolates the stale rows of a project. With a zero anchor
// the first stale event is the anchor; otherwise stale rows before the
// anchor are dropped. Events are ordered by pull number then time.
func StaleEvents(rows []model.Row, anchor time.Time) (Episode, error) {
	var stale []model.Row
	for _, r := range rows {
		if !r.IsStale {
			continue
		}
		if !anchor.IsZero() && r.Time.Before(anchor) {
			continue
		}
		stale = append(stale, r)
	}
	if len(stale) == 0 {
		return Episode{}, ErrNoStaleActivity
	}

	sort.SliceStable(stale, func(i, j int) bool {
		if stale[i].PullNumber != stale[j].PullNumber {
			return stale[i].PullNumber < stale[j].PullNumber
		}
		return stale[i].Time.Before(stale[j].Time)
	})

	first, last := stale[0].Time, stale[0].Time
	for _, r := range stale {
		if r.Time.Before(first) {
			first = r.Time
		}
		if r.Time.After(last) {
			last = r.Time
		}
	}
	if anchor.IsZero() {
		anchor = first
	}

	episode := Episode{Anchor: anchor, Last: last, Events: make([]StaleEvent, len(stale))}
	for i, r := range stale {
		episode.Events[i] = StaleEvent{Row: r, Month: duration.MonthOffset(r.Time, anchor)}
	}
	return episode, nil
}

// MarkWarnings flags genuine stale warnings: stale comments and labels
// that are not immediately followed, within window, by the bot closing
// the same pull request. Events must be ordered by pull number then time.
func MarkWarnings(events []StaleEvent, window time.Duration) {
	for i := range events {
		e := &events[i]
		if e.Kind != model.EventCommented && e.Kind != model.EventLabeled {
			e.IsWarning = false
			continue
		}
		closing := false
		if i+1 < len(events) {
			next := events[i+1]
			closing = next.PullNumber == e.PullNumber &&
				next.Kind == model.EventClosed &&
				next.Time.Sub(e.Time) <= window
		}
		e.IsWarning = !closing
	}
}

// StaleActivity counts stale events per month: total events and distinct
// pull requests staled, warned and closed. Months without events inside
// the covered range are present with zero counts.
func StaleActivity(events []StaleEvent) []model.Activity {
	if len(events) == 0 {
		return nil
	}

	type month struct {
		events                 int
		staled, warned, closed map[int]struct{}
	}
	months := make(map[int]*month)
	lo, hi := events[0].Month, events[0].Month
	for _, e := range events {
		m, ok := months[e.Month]
		if !ok {
			m = &month{
				staled: make(map[int]struct{}),
				warned: make(map[int]struct{}),
				closed: make(map[int]struct{}),
			}
			months[e.Month] = m
		}
		m.events++
		m.staled[e.PullNumber] = struct{}{}
		if e.IsWarning {
			m.warned[e.PullNumber] = struct{}{}
		}
		if e.Kind == model.EventClosed {
			m.closed[e.PullNumber] = struct{}{}
		}
		lo, hi = min(lo, e.Month), max(hi, e.Month)
	}

	activity := make([]model.Activity, 0, hi-lo+1)
	for month := lo; month <= hi; month++ {
		a := model.Activity{Month: month}
		if m, ok := months[month]; ok {
			a.Events = m.events
			a.Staled = len(m.staled)
			a.Warned = len(m.warned)
			a.Closed = len(m.closed)
		}
		activity = append(activity, a)
	}
	return activity
}
