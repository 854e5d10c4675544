package store

import (
	"context"

	"github.com/spiffcs/stalemate/internal/model"
)

var eventHeader = []string{
	"pull_number", "event", "actor", "time", "state",
	"commit_id", "sha", "referenced", "label", "body",
}

var statusHeader = []string{
	"is_open", "is_closed", "is_merged",
	"opened_at", "closed_at", "merged_at",
	"closed_by", "merged_by", "resolved_at", "resolved_by",
	"is_staled", "first_staled_at", "last_staled_at",
	"is_stale_closed", "first_stale_closed_at", "last_stale_closed_at",
}

var flagHeader = []string{"is_contributor", "is_stale_bot", "is_stale_action", "is_stale"}

func eventValues(e model.Event) []string {
	return []string{
		formatInt(e.PullNumber), string(e.Kind), e.Actor, formatTime(e.Time), e.State,
		e.CommitID, e.SHA, formatBool(e.Referenced), e.Label, e.Body,
	}
}

func readEvent(r *record) model.Event {
	return model.Event{
		PullNumber: r.int("pull_number"),
		Kind:       model.EventKind(r.str("event")),
		Actor:      r.str("actor"),
		Time:       r.time("time"),
		State:      r.str("state"),
		CommitID:   r.str("commit_id"),
		SHA:        r.str("sha"),
		Referenced: r.bool("referenced"),
		Label:      r.str("label"),
		Body:       r.str("body"),
	}
}

func statusValues(s model.Status) []string {
	return []string{
		formatBool(s.IsOpen), formatBool(s.IsClosed), formatBool(s.IsMerged),
		formatTime(s.OpenedAt), formatTime(s.ClosedAt), formatTime(s.MergedAt),
		s.ClosedBy, s.MergedBy, formatTime(s.ResolvedAt), s.ResolvedBy,
		formatBool(s.IsStaled), formatTime(s.FirstStaledAt), formatTime(s.LastStaledAt),
		formatBool(s.IsStaleClosed), formatTime(s.FirstStaleClosedAt), formatTime(s.LastStaleClosedAt),
	}
}

func readStatus(r *record) model.Status {
	return model.Status{
		IsOpen:             r.bool("is_open"),
		IsClosed:           r.bool("is_closed"),
		IsMerged:           r.bool("is_merged"),
		OpenedAt:           r.time("opened_at"),
		ClosedAt:           r.time("closed_at"),
		MergedAt:           r.time("merged_at"),
		ClosedBy:           r.str("closed_by"),
		MergedBy:           r.str("merged_by"),
		ResolvedAt:         r.time("resolved_at"),
		ResolvedBy:         r.str("resolved_by"),
		IsStaled:           r.bool("is_staled"),
		FirstStaledAt:      r.time("first_staled_at"),
		LastStaledAt:       r.time("last_staled_at"),
		IsStaleClosed:      r.bool("is_stale_closed"),
		FirstStaleClosedAt: r.time("first_stale_closed_at"),
		LastStaleClosedAt:  r.time("last_stale_closed_at"),
	}
}

// ReadEvents loads the raw event log of a project.
func (s *Store) ReadEvents(table, project string) ([]model.Event, error) {
	var events []model.Event
	err := s.read(table, project, func(r *record) error {
		events = append(events, readEvent(r))
		return nil
	})
	return events, err
}

// WriteEvents writes a raw event log.
func (s *Store) WriteEvents(ctx context.Context, table, project string, events []model.Event) error {
	return s.write(ctx, table, project, eventHeader, func(yield func([]string) error) error {
		for _, e := range events {
			if err := yield(eventValues(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteRows writes classified timeline rows. The is_core column is only
// written once rows have been tagged.
func (s *Store) WriteRows(ctx context.Context, table, project string, rows []model.Row, tagged bool) error {
	header := append(append(append([]string{}, eventHeader...), statusHeader...), flagHeader...)
	if tagged {
		header = append(header, "is_core")
	}
	return s.write(ctx, table, project, header, func(yield func([]string) error) error {
		for _, row := range rows {
			values := append(eventValues(row.Event), statusValues(row.Status)...)
			values = append(values,
				formatBool(row.IsContributor), formatBool(row.IsStaleBot),
				formatBool(row.IsStaleAction), formatBool(row.IsStale))
			if tagged {
				values = append(values, formatBool(row.IsCore))
			}
			if err := yield(values); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadRows loads classified timeline rows, tagged or not.
func (s *Store) ReadRows(table, project string) ([]model.Row, error) {
	var rows []model.Row
	err := s.read(table, project, func(r *record) error {
		rows = append(rows, model.Row{
			Event:         readEvent(r),
			Status:        readStatus(r),
			IsContributor: r.bool("is_contributor"),
			IsStaleBot:    r.bool("is_stale_bot"),
			IsStaleAction: r.bool("is_stale_action"),
			IsStale:       r.bool("is_stale"),
			IsCore:        r.bool("is_core"),
		})
		return nil
	})
	return rows, err
}
