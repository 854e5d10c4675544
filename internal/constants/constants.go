// Package constants provides a centralized location for the default
// actors, thresholds and magic numbers used throughout the pipeline.
package constants

import "time"

// TUI update and display constants
const (
	// TUIUpdateInterval is the minimum time between TUI progress updates
	// to provide smooth progress display without excessive overhead.
	TUIUpdateInterval = 50 * time.Millisecond

	// LogThrottlePercent is the interval (in percent) at which progress
	// logs are emitted when not using the TUI.
	LogThrottlePercent = 5
)

// Actor identities
const (
	// StaleBotActor is the dedicated stale bot app.
	StaleBotActor = "stale[bot]"

	// AutomationActor is the generic automation actor that runs the stale
	// action among other workflows.
	AutomationActor = "github-actions[bot]"

	// GhostActor is the placeholder left behind by deleted accounts.
	GhostActor = "ghost"

	// StaleKeyword marks stale comments and labels (case-insensitive).
	StaleKeyword = "stale"
)

// Stale episode constants
const (
	// WarningWindow is the maximum gap between a stale event and the bot's
	// closing event for the former to count as part of the close rather
	// than as a genuine warning.
	WarningWindow = time.Minute
)

// ReferenceTime is the "now" used for the resolution time of pull requests
// that are still open. It matches the end of the event archive snapshot.
var ReferenceTime = time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)

// Anchor overrides
const (
	// CalypsoProject had stale bot test runs long before the real adoption.
	CalypsoProject = "automattic/wp-calypso"

	// CalypsoAnchor is the first genuine stale bot event of CalypsoProject.
	CalypsoAnchor = "2019-04-20T05:46:48Z"
)

// Table names, one file per project per table.
const (
	TableTimelines     = "timelines"
	TablePulls         = "pulls"
	TablePatches       = "patches"
	TableDataframe     = "dataframe"
	TableDataset       = "dataset"
	TableFeatures      = "features"
	TableFeaturesFixed = "features_fixed"
	TableActivity      = "activity"
	TableIndicators    = "indicators"
)

// StatisticsFile is the cross-project summary table, one row per project.
const StatisticsFile = "statistics.csv"

// MetadataFile is the SQLite repository metadata database inside the data
// directory.
const MetadataFile = "metadata.db"
