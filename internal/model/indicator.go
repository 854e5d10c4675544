package model

import "time"

// Activity is the monthly funnel and stale activity of a project.
type Activity struct {
	Month              int
	OpenedPulls        int
	MergedPulls        int
	ClosedPulls        int
	ActiveContributors int
	OpenPulls          int
	Workload           int

	// Stale bot activity
	Events int
	Staled int
	Warned int
	Closed int
}

// Adoption holds the project-wide markers relative to the first stale
// bot appearance.
type Adoption struct {
	FirstStaleTime         time.Time
	LastStaleTime          time.Time
	StaleActivityPeriod    float64
	AgeAtAdoption          float64
	PullsAtAdoption        int
	ContributorsAtAdoption int
	MaintainersAtAdoption  int
}

// Indicator is one row per (resolved month, merged) group.
type Indicator struct {
	ResolvedMonth int
	IsMerged      bool

	// Means holds the group mean of each characteristic, in
	// CharacteristicNames order.
	Means []float64

	Activity Activity

	Time              int
	IsAdopted         bool
	TimeSinceAdoption int

	Adoption Adoption
}

// Statistics is the summary row recorded for each postprocessed project.
type Statistics struct {
	Project           string
	Language          string
	Stars             int
	Age               float64
	Contributors      int
	Maintainers       int
	Pulls             int
	Open              int
	Closed            int
	Merged            int
	Staled            int
	StaledMerged      int
	StaleClosed       int
	StaleClosedMerged int
}
