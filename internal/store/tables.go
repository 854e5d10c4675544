package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spiffcs/stalemate/internal/model"
)

// ReadPulls loads the title and body of each pull request of a project.
func (s *Store) ReadPulls(table, project string) ([]model.PullText, error) {
	var pulls []model.PullText
	err := s.read(table, project, func(r *record) error {
		pulls = append(pulls, model.PullText{
			PullNumber: r.int("pull_number"),
			Title:      r.str("title"),
			Body:       r.str("body"),
		})
		return nil
	})
	return pulls, err
}

// WritePulls writes pull request texts.
func (s *Store) WritePulls(ctx context.Context, table, project string, pulls []model.PullText) error {
	header := []string{"pull_number", "title", "body"}
	return s.write(ctx, table, project, header, func(yield func([]string) error) error {
		for _, p := range pulls {
			if err := yield([]string{formatInt(p.PullNumber), p.Title, p.Body}); err != nil {
				return err
			}
		}
		return nil
	})
}

var patchHeader = []string{"pull_number", "sha", "added_lines", "deleted_lines", "files"}

// ReadPatches loads the commit patches of a project. The files column is a
// JSON array of paths.
func (s *Store) ReadPatches(table, project string) ([]model.Patch, error) {
	var patches []model.Patch
	err := s.read(table, project, func(r *record) error {
		p := model.Patch{
			PullNumber:   r.int("pull_number"),
			SHA:          r.str("sha"),
			AddedLines:   r.int("added_lines"),
			DeletedLines: r.int("deleted_lines"),
		}
		if files := r.str("files"); files != "" {
			if err := json.Unmarshal([]byte(files), &p.Files); err != nil {
				return fmt.Errorf("%s:%d: files of %s: %w", r.path, r.line+1, p.SHA, err)
			}
		}
		patches = append(patches, p)
		return nil
	})
	return patches, err
}

// WritePatches writes commit patches.
func (s *Store) WritePatches(ctx context.Context, table, project string, patches []model.Patch) error {
	return s.write(ctx, table, project, patchHeader, func(yield func([]string) error) error {
		for _, p := range patches {
			files := p.Files
			if files == nil {
				files = []string{}
			}
			encoded, err := json.Marshal(files)
			if err != nil {
				return err
			}
			values := []string{
				formatInt(p.PullNumber), p.SHA,
				formatInt(p.AddedLines), formatInt(p.DeletedLines), string(encoded),
			}
			if err := yield(values); err != nil {
				return err
			}
		}
		return nil
	})
}

func featureHeader() []string {
	header := []string{"project", "pull_number", "contributor", "is_core"}
	header = append(header, statusHeader...)
	return append(header, model.CharacteristicNames...)
}

// WriteFeatures writes per pull request feature records.
func (s *Store) WriteFeatures(ctx context.Context, table, project string, features []model.Feature) error {
	return s.write(ctx, table, project, featureHeader(), func(yield func([]string) error) error {
		for _, f := range features {
			values := []string{f.Project, formatInt(f.PullNumber), f.Contributor, formatBool(f.IsCore)}
			values = append(values, statusValues(f.Status)...)
			for _, v := range f.Characteristics() {
				values = append(values, formatFloat(v))
			}
			if err := yield(values); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadFeatures loads per pull request feature records.
func (s *Store) ReadFeatures(table, project string) ([]model.Feature, error) {
	var features []model.Feature
	err := s.read(table, project, func(r *record) error {
		f := model.Feature{
			Project:     r.str("project"),
			PullNumber:  r.int("pull_number"),
			Contributor: r.str("contributor"),
			IsCore:      r.bool("is_core"),
			Status:      readStatus(r),
		}
		values := make([]float64, len(model.CharacteristicNames))
		for i, name := range model.CharacteristicNames {
			values[i] = r.float(name)
		}
		f.SetCharacteristics(values)
		features = append(features, f)
		return nil
	})
	return features, err
}

var activityHeader = []string{
	"month", "opened_pulls", "merged_pulls", "closed_pulls", "active_contributors",
	"open_pulls", "workload", "events", "staled", "warned", "closed",
}

func activityValues(a model.Activity) []string {
	return []string{
		formatInt(a.Month), formatInt(a.OpenedPulls), formatInt(a.MergedPulls),
		formatInt(a.ClosedPulls), formatInt(a.ActiveContributors), formatInt(a.OpenPulls),
		formatInt(a.Workload), formatInt(a.Events), formatInt(a.Staled),
		formatInt(a.Warned), formatInt(a.Closed),
	}
}

func readActivity(r *record) model.Activity {
	return model.Activity{
		Month:              r.int("month"),
		OpenedPulls:        r.int("opened_pulls"),
		MergedPulls:        r.int("merged_pulls"),
		ClosedPulls:        r.int("closed_pulls"),
		ActiveContributors: r.int("active_contributors"),
		OpenPulls:          r.int("open_pulls"),
		Workload:           r.int("workload"),
		Events:             r.int("events"),
		Staled:             r.int("staled"),
		Warned:             r.int("warned"),
		Closed:             r.int("closed"),
	}
}

// WriteActivity writes the monthly activity of a project.
func (s *Store) WriteActivity(ctx context.Context, table, project string, activity []model.Activity) error {
	return s.write(ctx, table, project, activityHeader, func(yield func([]string) error) error {
		for _, a := range activity {
			if err := yield(activityValues(a)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadActivity loads the monthly activity of a project.
func (s *Store) ReadActivity(table, project string) ([]model.Activity, error) {
	var activity []model.Activity
	err := s.read(table, project, func(r *record) error {
		activity = append(activity, readActivity(r))
		return nil
	})
	return activity, err
}

var adoptionHeader = []string{
	"time", "adoption", "time_since_adoption",
	"first_stale_time", "last_stale_time", "stale_activity_period",
	"age_at_adoption", "pulls_at_adoption", "contributors_at_adoption", "maintainers_at_adoption",
}

func indicatorHeader() []string {
	header := []string{"resolved_month", "is_merged"}
	header = append(header, model.CharacteristicNames...)
	header = append(header, activityHeader[1:]...)
	return append(header, adoptionHeader...)
}

// WriteIndicators writes the indicators of a project.
func (s *Store) WriteIndicators(ctx context.Context, table, project string, indicators []model.Indicator) error {
	return s.write(ctx, table, project, indicatorHeader(), func(yield func([]string) error) error {
		for _, ind := range indicators {
			values := []string{formatInt(ind.ResolvedMonth), formatBool(ind.IsMerged)}
			for _, v := range ind.Means {
				values = append(values, formatFloat(v))
			}
			values = append(values, activityValues(ind.Activity)[1:]...)
			a := ind.Adoption
			values = append(values,
				formatInt(ind.Time), formatBool(ind.IsAdopted), formatInt(ind.TimeSinceAdoption),
				formatTime(a.FirstStaleTime), formatTime(a.LastStaleTime), formatFloat(a.StaleActivityPeriod),
				formatFloat(a.AgeAtAdoption), formatInt(a.PullsAtAdoption),
				formatInt(a.ContributorsAtAdoption), formatInt(a.MaintainersAtAdoption),
			)
			if err := yield(values); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadIndicators loads the indicators of a project.
func (s *Store) ReadIndicators(table, project string) ([]model.Indicator, error) {
	var indicators []model.Indicator
	err := s.read(table, project, func(r *record) error {
		ind := model.Indicator{
			ResolvedMonth:     r.int("resolved_month"),
			IsMerged:          r.bool("is_merged"),
			Means:             make([]float64, len(model.CharacteristicNames)),
			Activity:          readActivity(r),
			Time:              r.int("time"),
			IsAdopted:         r.bool("adoption"),
			TimeSinceAdoption: r.int("time_since_adoption"),
			Adoption: model.Adoption{
				FirstStaleTime:         r.time("first_stale_time"),
				LastStaleTime:          r.time("last_stale_time"),
				StaleActivityPeriod:    r.float("stale_activity_period"),
				AgeAtAdoption:          r.float("age_at_adoption"),
				PullsAtAdoption:        r.int("pulls_at_adoption"),
				ContributorsAtAdoption: r.int("contributors_at_adoption"),
				MaintainersAtAdoption:  r.int("maintainers_at_adoption"),
			},
		}
		ind.Activity.Month = ind.ResolvedMonth
		for i, name := range model.CharacteristicNames {
			ind.Means[i] = r.float(name)
		}
		indicators = append(indicators, ind)
		return nil
	})
	return indicators, err
}
