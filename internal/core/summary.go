package core

import (
	"time"

	"github.com/spiffcs/stalemate/internal/duration"
	"github.com/spiffcs/stalemate/internal/model"
)

// Summarize computes the project statistics row from a tagged timeline.
func Summarize(project string, rows []model.Row, meta model.Metadata) model.Statistics {
	stats := model.Statistics{
		Project:  project,
		Language: meta.Language,
		Stars:    meta.Watchers,
	}

	contributors := make(map[string]struct{})
	maintainers := make(map[string]struct{})
	var lastOpened time.Time
	for _, r := range rows {
		if r.IsCore {
			maintainers[r.Actor] = struct{}{}
		}
		if r.Kind != model.EventPulled {
			continue
		}

		contributors[r.Actor] = struct{}{}
		if r.Time.After(lastOpened) {
			lastOpened = r.Time
		}

		stats.Pulls++
		switch {
		case r.IsOpen:
			stats.Open++
		case r.IsClosed:
			stats.Closed++
		case r.IsMerged:
			stats.Merged++
		}
		if r.IsStaled {
			stats.Staled++
			if r.IsMerged {
				stats.StaledMerged++
			}
		}
		if r.IsStaleClosed {
			stats.StaleClosed++
			if r.IsMerged {
				stats.StaleClosedMerged++
			}
		}
	}

	stats.Contributors = len(contributors)
	stats.Maintainers = len(maintainers)
	if !meta.CreatedAt.IsZero() && !lastOpened.IsZero() {
		stats.Age = duration.Months(lastOpened.Sub(meta.CreatedAt))
	}
	return stats
}
