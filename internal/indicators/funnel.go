package indicators

import (
	"time"

	"github.com/spiffcs/stalemate/internal/duration"
	"github.com/spiffcs/stalemate/internal/model"
)

// Sanitize drops pull requests with a negative characteristic. Negative
// values only arise from malformed timestamps; such pull requests are
// excluded from indicators rather than repaired.
func Sanitize(features []model.Feature) []model.Feature {
	out := make([]model.Feature, 0, len(features))
	for _, f := range features {
		valid := true
		for _, v := range f.Characteristics() {
			if v < 0 {
				valid = false
				break
			}
		}
		if valid {
			out = append(out, f)
		}
	}
	return out
}

// OpenedMonth returns the month a pull request was opened in.
func OpenedMonth(f model.Feature, anchor time.Time) int {
	return duration.MonthOffset(f.Status.OpenedAt, anchor)
}

// ResolvedMonth returns the month a pull request was resolved in, and
// false when it is unresolved.
func ResolvedMonth(f model.Feature, anchor time.Time) (int, bool) {
	if !f.Status.Resolved() {
		return 0, false
	}
	return duration.MonthOffset(f.Status.ResolvedAt, anchor), true
}

// Funnel counts opened, merged and closed pull requests and active
// contributors per month, from the first opened month through the last
// opened or resolved month. The open backlog carries the net of all
// previous months and workload adds the month's new pull requests to it.
func Funnel(features []model.Feature, anchor time.Time) []model.Activity {
	if len(features) == 0 {
		return nil
	}

	lo := OpenedMonth(features[0], anchor)
	hi := lo
	for _, f := range features {
		opened := OpenedMonth(f, anchor)
		lo, hi = min(lo, opened), max(hi, opened)
		if resolved, ok := ResolvedMonth(f, anchor); ok {
			hi = max(hi, resolved)
		}
	}

	activity := make([]model.Activity, hi-lo+1)
	contributors := make([]map[string]struct{}, hi-lo+1)
	for i := range activity {
		activity[i].Month = lo + i
		contributors[i] = make(map[string]struct{})
	}

	for _, f := range features {
		i := OpenedMonth(f, anchor) - lo
		activity[i].OpenedPulls++
		contributors[i][f.Contributor] = struct{}{}

		if resolved, ok := ResolvedMonth(f, anchor); ok && resolved >= lo {
			switch {
			case f.Status.IsMerged:
				activity[resolved-lo].MergedPulls++
			case f.Status.IsClosed:
				activity[resolved-lo].ClosedPulls++
			}
		}
	}

	backlog := 0
	for i := range activity {
		a := &activity[i]
		a.ActiveContributors = len(contributors[i])
		a.OpenPulls = backlog
		a.Workload = a.OpenedPulls + a.OpenPulls
		backlog += a.OpenedPulls - a.MergedPulls - a.ClosedPulls
	}
	return activity
}

// Join adds the stale activity of each month to the funnel. Stale months
// outside the funnel range are dropped; funnel months without stale
// activity keep zero counts.
func Join(funnel, stale []model.Activity) []model.Activity {
	byMonth := make(map[int]model.Activity, len(stale))
	for _, s := range stale {
		byMonth[s.Month] = s
	}

	out := make([]model.Activity, len(funnel))
	for i, a := range funnel {
		if s, ok := byMonth[a.Month]; ok {
			a.Events = s.Events
			a.Staled = s.Staled
			a.Warned = s.Warned
			a.Closed = s.Closed
		}
		out[i] = a
	}
	return out
}
