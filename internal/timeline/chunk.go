package timeline

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/model"
)

// Group sorts events by pull number then time, keeping input order for
// ties, and splits them into one slice per pull request.
func Group(events []model.Event) [][]model.Event {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PullNumber != sorted[j].PullNumber {
			return sorted[i].PullNumber < sorted[j].PullNumber
		}
		return sorted[i].Time.Before(sorted[j].Time)
	})

	var groups [][]model.Event
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].PullNumber != sorted[start].PullNumber {
			groups = append(groups, sorted[start:i])
			start = i
		}
	}
	return groups
}

// Chunk splits groups into n contiguous chunks whose pull request counts
// differ by at most one. Earlier chunks take the remainder.
func Chunk(groups [][]model.Event, n int) [][][]model.Event {
	if n < 1 {
		n = 1
	}
	if n > len(groups) {
		n = len(groups)
	}

	chunks := make([][][]model.Event, 0, n)
	size, extra := 0, 0
	if n > 0 {
		size, extra = len(groups)/n, len(groups)%n
	}
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		chunks = append(chunks, groups[start:end])
		start = end
	}
	return chunks
}

// ClassifyChunk classifies every pull request of a chunk. Pull requests
// without a pulled event are dropped with a warning.
func (c *Classifier) ClassifyChunk(chunk [][]model.Event) []model.Row {
	var rows []model.Row
	for _, events := range chunk {
		classified, err := c.Classify(events)
		if err != nil {
			if errors.Is(err, ErrNoPulled) && len(events) > 0 {
				log.Warn("dropping pull request", "pull", events[0].PullNumber, "reason", err)
			}
			continue
		}
		rows = append(rows, classified...)
	}
	return rows
}

// ClassifyProject classifies all events of a project, fanning chunks out
// to workers and concatenating the results in pull number order.
func (c *Classifier) ClassifyProject(ctx context.Context, events []model.Event, workers int) ([]model.Row, error) {
	chunks := Chunk(Group(events), workers)
	results := make([][]model.Row, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.ClassifyChunk(chunk)
			log.Debug("classified chunk", "chunk", i, "pulls", len(chunk))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []model.Row
	for _, r := range results {
		rows = append(rows, r...)
	}
	return rows, nil
}
