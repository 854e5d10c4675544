package indicators

import (
	"sort"
	"time"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/duration"
	"github.com/spiffcs/stalemate/internal/model"
)

// Options configures the indicator computation of one project.
type Options struct {
	// Anchor overrides the adoption time. Zero means the first stale
	// event of the project.
	Anchor time.Time

	// WarningWindow is the adjacency under which a stale event counts as
	// part of the bot's close.
	WarningWindow time.Duration
}

// Result holds the three tables produced for a project.
type Result struct {
	Features   []model.Feature
	Activity   []model.Activity
	Indicators []model.Indicator
}

// Measure computes the sanitized features, monthly activity and
// indicators of a project.
func Measure(rows []model.Row, features []model.Feature, meta model.Metadata, opts Options) (Result, error) {
	if opts.WarningWindow <= 0 {
		opts.WarningWindow = constants.WarningWindow
	}

	episode, err := StaleEvents(rows, opts.Anchor)
	if err != nil {
		return Result{}, err
	}
	MarkWarnings(episode.Events, opts.WarningWindow)
	stale := StaleActivity(episode.Events)

	features = Sanitize(features)
	activity := Join(Funnel(features, episode.Anchor), stale)

	adoption := adoptionMarkers(rows, features, meta, episode)
	return Result{
		Features:   features,
		Activity:   activity,
		Indicators: Assemble(features, activity, episode.Anchor, adoption),
	}, nil
}

type groupKey struct {
	month  int
	merged bool
}

// Assemble averages the characteristics of resolved pull requests per
// (resolved month, merged) group and attaches the month's activity and the
// adoption markers. Groups whose month has no activity row are dropped.
func Assemble(features []model.Feature, activity []model.Activity, anchor time.Time, adoption model.Adoption) []model.Indicator {
	sums := make(map[groupKey][]float64)
	counts := make(map[groupKey]int)
	for _, f := range features {
		month, ok := ResolvedMonth(f, anchor)
		if !ok {
			continue
		}
		key := groupKey{month: month, merged: f.Status.IsMerged}
		if sums[key] == nil {
			sums[key] = make([]float64, len(model.CharacteristicNames))
		}
		for i, v := range f.Characteristics() {
			sums[key][i] += v
		}
		counts[key]++
	}

	byMonth := make(map[int]model.Activity, len(activity))
	for _, a := range activity {
		byMonth[a.Month] = a
	}

	keys := make([]groupKey, 0, len(sums))
	for k := range sums {
		if _, ok := byMonth[k.month]; ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return !keys[i].merged && keys[j].merged
	})

	offset := keys[0].month
	if offset < 0 {
		offset = -offset
	}

	indicators := make([]model.Indicator, 0, len(keys))
	for _, k := range keys {
		means := make([]float64, len(sums[k]))
		for i, sum := range sums[k] {
			means[i] = sum / float64(counts[k])
		}
		ind := model.Indicator{
			ResolvedMonth: k.month,
			IsMerged:      k.merged,
			Means:         means,
			Activity:      byMonth[k.month],
			Time:          k.month + offset + 1,
			IsAdopted:     k.month >= 0,
			Adoption:      adoption,
		}
		if ind.IsAdopted {
			ind.TimeSinceAdoption = k.month + 1
		}
		indicators = append(indicators, ind)
	}
	return indicators
}

// adoptionMarkers describes the project at the time the stale bot first
// appeared: its age and the pulls, contributors and maintainers it had.
func adoptionMarkers(rows []model.Row, features []model.Feature, meta model.Metadata, episode Episode) model.Adoption {
	adoption := model.Adoption{
		FirstStaleTime:      episode.Anchor,
		LastStaleTime:       episode.Last,
		StaleActivityPeriod: episode.Period(),
	}
	if !meta.CreatedAt.IsZero() {
		adoption.AgeAtAdoption = duration.Months(episode.Anchor.Sub(meta.CreatedAt))
	}

	contributors := make(map[string]struct{})
	for _, f := range features {
		if OpenedMonth(f, episode.Anchor) < 0 {
			adoption.PullsAtAdoption++
			contributors[f.Contributor] = struct{}{}
		}
	}
	adoption.ContributorsAtAdoption = len(contributors)

	maintainers := make(map[string]struct{})
	for _, r := range rows {
		if r.IsCore && r.Time.Before(episode.Anchor) {
			maintainers[r.Actor] = struct{}{}
		}
	}
	adoption.MaintainersAtAdoption = len(maintainers)
	return adoption
}
