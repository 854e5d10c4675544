// Package features derives per pull request features from a tagged
// timeline, the pull request texts and the commit patches of a project.
package features

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/stalemate/internal/duration"
	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/model"
)

// Extractor measures the features of every pull request of one project.
// It holds read-only indexes and is safe for concurrent use.
type Extractor struct {
	project   string
	timelines map[int][]model.Row
	numbers   []int
	opened    []model.Row
	texts     map[int]model.PullText
	patches   map[int]map[string]model.Patch
	now       time.Time
}

// NewExtractor indexes a project's tagged timeline, pull request texts and
// patches. now is the reference time for pull requests still open.
func NewExtractor(project string, rows []model.Row, texts []model.PullText, patches []model.Patch, now time.Time) *Extractor {
	x := &Extractor{
		project:   project,
		timelines: make(map[int][]model.Row),
		texts:     make(map[int]model.PullText, len(texts)),
		patches:   make(map[int]map[string]model.Patch),
		now:       now,
	}

	for _, r := range rows {
		if _, ok := x.timelines[r.PullNumber]; !ok {
			x.numbers = append(x.numbers, r.PullNumber)
		}
		x.timelines[r.PullNumber] = append(x.timelines[r.PullNumber], r)
		if r.Kind == model.EventPulled {
			x.opened = append(x.opened, r)
		}
	}
	sort.Ints(x.numbers)
	for _, tl := range x.timelines {
		sort.SliceStable(tl, func(i, j int) bool { return tl[i].Time.Before(tl[j].Time) })
	}

	for _, t := range texts {
		x.texts[t.PullNumber] = t
	}
	for _, p := range patches {
		if x.patches[p.PullNumber] == nil {
			x.patches[p.PullNumber] = make(map[string]model.Patch)
		}
		x.patches[p.PullNumber][p.SHA] = p
	}
	return x
}

// Measure computes the feature record of one pull request. It returns
// false when the pull request has no pulled event.
func (x *Extractor) Measure(pull int) (model.Feature, bool) {
	timeline := x.timelines[pull]
	var opened *model.Row
	for i := range timeline {
		if timeline[i].Kind == model.EventPulled {
			opened = &timeline[i]
			break
		}
	}
	if opened == nil {
		return model.Feature{}, false
	}

	status := opened.Status
	if status.Resolved() {
		timeline = until(timeline, status.ResolvedAt)
	}

	f := model.Feature{
		Project:     x.project,
		PullNumber:  pull,
		Contributor: opened.Actor,
		IsCore:      opened.IsCore,
		Status:      status,
	}

	text := x.texts[pull]
	f.PRDescription = float64(len(strings.Fields(text.Title)) + len(strings.Fields(text.Body)))

	x.measureCommits(&f, timeline)
	x.measureContributor(&f, opened)
	x.measureReview(&f, timeline, opened)
	return f, true
}

// MeasureAll measures every pull request with a pool of workers. The
// result is ordered by pull number.
func (x *Extractor) MeasureAll(ctx context.Context, workers int) ([]model.Feature, error) {
	results := make([]model.Feature, len(x.numbers))
	measured := make([]bool, len(x.numbers))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, pull := range x.numbers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], measured[i] = x.Measure(pull)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	features := make([]model.Feature, 0, len(results))
	for i, f := range results {
		if !measured[i] {
			log.Warn("skipping pull request without pulled event", "project", x.project, "pull", x.numbers[i])
			continue
		}
		features = append(features, f)
	}
	return features, nil
}

// measureCommits splits commits into those present when the pull request
// was opened and follow-ups. A file counts once across the whole history,
// attributed to the first commit touching it.
func (x *Extractor) measureCommits(f *model.Feature, timeline []model.Row) {
	patches := x.patches[f.PullNumber]
	seen := make(map[string]struct{})

	var initial, followup []model.Row
	for _, r := range timeline {
		if r.Kind != model.EventCommitted {
			continue
		}
		if r.Time.After(f.Status.OpenedAt) {
			followup = append(followup, r)
		} else {
			initial = append(initial, r)
		}
	}

	count := func(commits []model.Row) (lines, files int) {
		for _, c := range commits {
			p, ok := patches[c.SHA]
			if !ok {
				continue
			}
			lines += p.ChangedLines()
			for _, file := range p.Files {
				if _, dup := seen[file]; dup {
					continue
				}
				seen[file] = struct{}{}
				files++
			}
		}
		return lines, files
	}

	initialLines, initialFiles := count(initial)
	followupLines, followupFiles := count(followup)

	f.PRCommits = float64(len(initial) + len(followup))
	f.PRInitialCommits = float64(len(initial))
	f.PRFollowupCommits = float64(len(followup))
	f.PRInitialChangedLines = float64(initialLines)
	f.PRFollowupChangedLines = float64(followupLines)
	f.PRChangedLines = float64(initialLines + followupLines)
	f.PRInitialChangedFiles = float64(initialFiles)
	f.PRFollowupChangedFiles = float64(followupFiles)
	f.PRChangedFiles = float64(initialFiles + followupFiles)
}

// measureContributor looks at the contributor's earlier pull requests in
// the same project.
func (x *Extractor) measureContributor(f *model.Feature, opened *model.Row) {
	var prior, accepted int
	var earliest time.Time
	for _, r := range x.opened {
		if r.PullNumber >= f.PullNumber || r.Actor != opened.Actor {
			continue
		}
		prior++
		if !r.MergedAt.IsZero() && r.MergedAt.Before(opened.OpenedAt) {
			accepted++
		}
		if earliest.IsZero() || r.OpenedAt.Before(earliest) {
			earliest = r.OpenedAt
		}
	}

	f.ContributorPulls = float64(prior)
	if prior > 0 {
		f.ContributorAcceptanceRate = float64(accepted) / float64(prior)
		f.ContributorContributionPeriod = duration.Months(opened.OpenedAt.Sub(earliest))
	}
}

// measureReview measures participation after the pull request was opened.
// Notifications and stale bot activity are not participation.
func (x *Extractor) measureReview(f *model.Feature, timeline []model.Row, opened *model.Row) {
	openedAt := f.Status.OpenedAt

	participants := make(map[string]struct{})
	var comments, contributorComments int
	var participantComments []time.Time
	for _, r := range timeline {
		if !r.Time.After(openedAt) || r.Kind.IsNotification() || r.IsStale {
			continue
		}
		if !r.IsContributor {
			participants[r.Actor] = struct{}{}
		}
		if !r.Kind.IsComment() {
			continue
		}
		comments++
		if r.IsContributor {
			contributorComments++
		} else {
			participantComments = append(participantComments, r.Time)
		}
	}

	end := x.now
	if f.Status.Resolved() {
		end = f.Status.ResolvedAt
	}
	resolution := duration.Hours(end.Sub(openedAt))

	f.ReviewParticipants = float64(len(participants))
	f.ReviewComments = float64(comments)
	f.ReviewContributorComments = float64(contributorComments)
	f.ReviewParticipantComments = float64(len(participantComments))
	f.ReviewResolutionTime = resolution
	f.ReviewFirstLatency = resolution
	f.ReviewMeanLatency = resolution

	if len(participantComments) > 0 {
		f.ReviewFirstLatency = duration.Hours(participantComments[0].Sub(openedAt))

		// Mean gap over the chain opened -> first comment -> ... -> last.
		var total time.Duration
		prev := opened.Time
		for _, t := range participantComments {
			total += t.Sub(prev)
			prev = t
		}
		f.ReviewMeanLatency = duration.Hours(total) / float64(len(participantComments))
	}
}

func until(timeline []model.Row, t time.Time) []model.Row {
	out := make([]model.Row, 0, len(timeline))
	for _, r := range timeline {
		if !r.Time.After(t) {
			out = append(out, r)
		}
	}
	return out
}
