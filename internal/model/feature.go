package model

import "time"

// Patch holds the line and file deltas of one commit.
type Patch struct {
	PullNumber   int
	SHA          string
	AddedLines   int
	DeletedLines int
	Files        []string
}

// ChangedLines returns added plus deleted lines.
func (p Patch) ChangedLines() int {
	return p.AddedLines + p.DeletedLines
}

// PullText is the title and body of a pull request. Either may be empty.
type PullText struct {
	PullNumber int
	Title      string
	Body       string
}

// Metadata describes a repository as returned by the hosting platform.
type Metadata struct {
	Project   string
	CreatedAt time.Time
	Language  string
	Watchers  int
	Archived  bool
	Fork      bool
}

// Feature is the per pull request feature record.
type Feature struct {
	Project     string
	PullNumber  int
	Contributor string
	IsCore      bool

	Status Status

	PRDescription          float64
	PRCommits              float64
	PRInitialCommits       float64
	PRFollowupCommits      float64
	PRChangedLines         float64
	PRInitialChangedLines  float64
	PRFollowupChangedLines float64
	PRChangedFiles         float64
	PRInitialChangedFiles  float64
	PRFollowupChangedFiles float64

	ContributorPulls              float64
	ContributorAcceptanceRate     float64
	ContributorContributionPeriod float64

	ReviewParticipants        float64
	ReviewComments            float64
	ReviewContributorComments float64
	ReviewParticipantComments float64
	ReviewFirstLatency        float64
	ReviewMeanLatency         float64
	ReviewResolutionTime      float64
}

// CharacteristicNames lists the numeric feature columns in output order.
var CharacteristicNames = []string{
	"pr_description",
	"pr_commits",
	"pr_initial_commits",
	"pr_followup_commits",
	"pr_changed_lines",
	"pr_initial_changed_lines",
	"pr_followup_changed_lines",
	"pr_changed_files",
	"pr_initial_changed_files",
	"pr_followup_changed_files",
	"contributor_pulls",
	"contributor_acceptance_rate",
	"contributor_contribution_period",
	"review_participants",
	"review_comments",
	"review_contributor_comments",
	"review_participant_comments",
	"review_first_latency",
	"review_mean_latency",
	"review_resolution_time",
}

// Characteristics returns the numeric features in CharacteristicNames order.
func (f *Feature) Characteristics() []float64 {
	return []float64{
		f.PRDescription,
		f.PRCommits,
		f.PRInitialCommits,
		f.PRFollowupCommits,
		f.PRChangedLines,
		f.PRInitialChangedLines,
		f.PRFollowupChangedLines,
		f.PRChangedFiles,
		f.PRInitialChangedFiles,
		f.PRFollowupChangedFiles,
		f.ContributorPulls,
		f.ContributorAcceptanceRate,
		f.ContributorContributionPeriod,
		f.ReviewParticipants,
		f.ReviewComments,
		f.ReviewContributorComments,
		f.ReviewParticipantComments,
		f.ReviewFirstLatency,
		f.ReviewMeanLatency,
		f.ReviewResolutionTime,
	}
}

// SetCharacteristics assigns values in CharacteristicNames order. Extra
// values are ignored.
func (f *Feature) SetCharacteristics(values []float64) {
	fields := []*float64{
		&f.PRDescription,
		&f.PRCommits,
		&f.PRInitialCommits,
		&f.PRFollowupCommits,
		&f.PRChangedLines,
		&f.PRInitialChangedLines,
		&f.PRFollowupChangedLines,
		&f.PRChangedFiles,
		&f.PRInitialChangedFiles,
		&f.PRFollowupChangedFiles,
		&f.ContributorPulls,
		&f.ContributorAcceptanceRate,
		&f.ContributorContributionPeriod,
		&f.ReviewParticipants,
		&f.ReviewComments,
		&f.ReviewContributorComments,
		&f.ReviewParticipantComments,
		&f.ReviewFirstLatency,
		&f.ReviewMeanLatency,
		&f.ReviewResolutionTime,
	}
	for i, v := range values {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
}
