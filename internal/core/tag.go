// Package core tags repository maintainers on a classified timeline and
// summarizes a project once its timeline is complete.
package core

import (
	"time"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/model"
)

// Thresholds returns, per actor, the earliest time the actor closed a pull
// request opened by someone else or merged any pull request. Actors
// without such an action are absent. The ghost actor is never included.
func Thresholds(rows []model.Row, ghost string) map[string]time.Time {
	if ghost == "" {
		ghost = constants.GhostActor
	}

	thresholds := make(map[string]time.Time)
	consider := func(actor string, t time.Time) {
		if t.IsZero() {
			return
		}
		if cur, ok := thresholds[actor]; !ok || t.Before(cur) {
			thresholds[actor] = t
		}
	}

	for _, r := range rows {
		if r.Actor == ghost {
			continue
		}
		if !r.IsContributor && r.ClosedBy == r.Actor {
			consider(r.Actor, r.ClosedAt)
		}
		if r.MergedBy == r.Actor {
			consider(r.Actor, r.MergedAt)
		}
	}
	return thresholds
}

// Tag sets IsCore on every row whose actor has reached maintainer status
// by the row's time. Once set for an actor it stays set for all of the
// actor's later rows. Rows are updated in place and returned.
func Tag(rows []model.Row, ghost string) []model.Row {
	thresholds := Thresholds(rows, ghost)
	for i := range rows {
		since, ok := thresholds[rows[i].Actor]
		rows[i].IsCore = ok && !rows[i].Time.Before(since)
	}
	return rows
}
