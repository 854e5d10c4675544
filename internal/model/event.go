// Package model contains the tabular record types passed between pipeline
// stages. These types are independent of the storage format.
package model

import (
	"strings"
	"time"
)

// EventKind is the kind of a pull request timeline event.
type EventKind string

const (
	EventPulled          EventKind = "pulled"
	EventCommitted       EventKind = "committed"
	EventClosed          EventKind = "closed"
	EventMerged          EventKind = "merged"
	EventCommented       EventKind = "commented"
	EventReviewed        EventKind = "reviewed"
	EventLineCommented   EventKind = "line-commented"
	EventCommitCommented EventKind = "commit-commented"
	EventLabeled         EventKind = "labeled"
	EventUnlabeled       EventKind = "unlabeled"
	EventMentioned       EventKind = "mentioned"
	EventSubscribed      EventKind = "subscribed"
	EventReferenced      EventKind = "referenced"
)

// IsComment reports whether the kind counts as a review comment.
func (k EventKind) IsComment() bool {
	switch k {
	case EventCommented, EventReviewed, EventLineCommented, EventCommitCommented:
		return true
	}
	return false
}

// IsNotification reports whether the kind is a passive notification
// (mentions and subscriptions) rather than participation.
func (k EventKind) IsNotification() bool {
	return k == EventMentioned || k == EventSubscribed
}

// PR states as recorded on the pulled event.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Event is one raw timeline row of a pull request.
type Event struct {
	PullNumber int
	Kind       EventKind
	Actor      string
	Time       time.Time
	State      string
	CommitID   string
	SHA        string
	Referenced bool
	Label      string
	Body       string
}

// Status holds the per pull request fields derived once and broadcast to
// every row of its timeline. Zero times mean null.
type Status struct {
	IsOpen   bool
	IsClosed bool
	IsMerged bool

	OpenedAt   time.Time
	ClosedAt   time.Time
	MergedAt   time.Time
	ResolvedAt time.Time
	ClosedBy   string
	MergedBy   string
	ResolvedBy string

	IsStaled      bool
	FirstStaledAt time.Time
	LastStaledAt  time.Time

	IsStaleClosed      bool
	FirstStaleClosedAt time.Time
	LastStaleClosedAt  time.Time
}

// Resolved reports whether the pull request reached a terminal state with
// a known resolution time.
func (s Status) Resolved() bool {
	return !s.ResolvedAt.IsZero()
}

// Row is a classified timeline row: the raw event plus derived fields.
type Row struct {
	Event
	Status

	IsContributor bool
	IsStaleBot    bool
	IsStaleAction bool
	IsStale       bool
	IsCore        bool
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
