// Package timeline reconstructs pull request lifecycles from raw timeline
// events: resolution status, contributor attribution and stale episodes.
package timeline

import (
	"errors"
	"time"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/model"
)

// ErrNoPulled is returned for a timeline that has no pulled event and
// therefore no opener or opening time.
var ErrNoPulled = errors.New("timeline has no pulled event")

// Classifier derives the per pull request fields of a timeline.
type Classifier struct {
	staleBot   string
	automation string
}

// NewClassifier creates a classifier recognizing the given stale bot and
// automation actors. Empty values fall back to the defaults.
func NewClassifier(staleBot, automation string) *Classifier {
	if staleBot == "" {
		staleBot = constants.StaleBotActor
	}
	if automation == "" {
		automation = constants.AutomationActor
	}
	return &Classifier{staleBot: staleBot, automation: automation}
}

// Classify classifies the events of a single pull request. Events must be
// ordered by time.
func (c *Classifier) Classify(events []model.Event) ([]model.Row, error) {
	pulled := -1
	for i := range events {
		if events[i].Kind == model.EventPulled {
			pulled = i
			break
		}
	}
	if pulled < 0 {
		return nil, ErrNoPulled
	}

	status := resolve(events, events[pulled])

	rows := make([]model.Row, len(events))
	for i, e := range events {
		rows[i] = model.Row{
			Event:         e,
			IsContributor: e.Actor == events[pulled].Actor,
		}
	}

	c.markStale(rows)
	summarizeStale(rows, &status)

	for i := range rows {
		rows[i].Status = status
	}
	return rows, nil
}

// resolve determines the lifecycle status. A pull request whose current
// state is open is open; otherwise merge signals are checked in order of
// precedence: an explicit merge, a close carrying a commit reference, then
// any cross reference. Without a merge signal the last close wins, since a
// pull request may be closed and reopened.
func resolve(events []model.Event, pulled model.Event) model.Status {
	status := model.Status{OpenedAt: pulled.Time}

	if pulled.State == model.StateOpen {
		status.IsOpen = true
		return status
	}

	merged := first(events, func(e model.Event) bool { return e.Kind == model.EventMerged })
	if merged == nil {
		merged = first(events, func(e model.Event) bool {
			return e.Kind == model.EventClosed && e.CommitID != ""
		})
	}
	if merged == nil {
		merged = first(events, func(e model.Event) bool { return e.Referenced })
	}

	closed := last(events, func(e model.Event) bool { return e.Kind == model.EventClosed })

	switch {
	case merged != nil:
		status.IsMerged = true
		status.MergedAt = merged.Time
		status.MergedBy = merged.Actor
	case closed != nil:
		status.IsClosed = true
		status.ClosedAt = closed.Time
		status.ClosedBy = closed.Actor
	case pulled.State == model.StateClosed:
		// Closed upstream without any surviving close event.
		status.IsClosed = true
	default:
		status.IsOpen = true
	}

	status.ResolvedAt, status.ResolvedBy = status.MergedAt, status.MergedBy
	if status.ResolvedAt.IsZero() {
		status.ResolvedAt, status.ResolvedBy = status.ClosedAt, status.ClosedBy
	}
	return status
}

// markStale flags rows by the stale bot, stale comments and labels by the
// automation actor, and automation closes that follow such a flag.
func (c *Classifier) markStale(rows []model.Row) {
	var firstAction time.Time
	for i := range rows {
		r := &rows[i]
		r.IsStaleBot = r.Actor == c.staleBot
		if r.Actor == c.automation {
			switch r.Kind {
			case model.EventCommented:
				r.IsStaleAction = model.ContainsFold(r.Body, constants.StaleKeyword)
			case model.EventLabeled, model.EventUnlabeled:
				r.IsStaleAction = model.ContainsFold(r.Label, constants.StaleKeyword)
			}
			if r.IsStaleAction && (firstAction.IsZero() || r.Time.Before(firstAction)) {
				firstAction = r.Time
			}
		}
	}

	if !firstAction.IsZero() {
		for i := range rows {
			r := &rows[i]
			if r.Actor == c.automation && r.Kind == model.EventClosed && !r.Time.Before(firstAction) {
				r.IsStaleAction = true
			}
		}
	}

	for i := range rows {
		rows[i].IsStale = rows[i].IsStaleBot || rows[i].IsStaleAction
	}
}

// summarizeStale records the span of stale rows, and of stale closes,
// within the pull request's open lifetime.
func summarizeStale(rows []model.Row, status *model.Status) {
	for _, r := range rows {
		if !r.IsStale || !withinLifetime(r.Time, *status) {
			continue
		}
		if !status.IsStaled {
			status.IsStaled = true
			status.FirstStaledAt = r.Time
		}
		status.LastStaledAt = r.Time

		if r.Kind == model.EventClosed {
			if !status.IsStaleClosed {
				status.IsStaleClosed = true
				status.FirstStaleClosedAt = r.Time
			}
			status.LastStaleClosedAt = r.Time
		}
	}
}

func withinLifetime(t time.Time, status model.Status) bool {
	if t.Before(status.OpenedAt) {
		return false
	}
	if status.Resolved() && t.After(status.ResolvedAt) {
		return false
	}
	return true
}

func first(events []model.Event, match func(model.Event) bool) *model.Event {
	for i := range events {
		if match(events[i]) {
			return &events[i]
		}
	}
	return nil
}

func last(events []model.Event, match func(model.Event) bool) *model.Event {
	for i := len(events) - 1; i >= 0; i-- {
		if match(events[i]) {
			return &events[i]
		}
	}
	return nil
}
