package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/history"
	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/model"
	"github.com/spiffcs/stalemate/internal/output"
	"github.com/spiffcs/stalemate/internal/store"
)

// NewCmdStats creates the stats command.
func NewCmdStats(opts *Options) *cobra.Command {
	var sortBy string
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the project statistics recorded by postprocess",
		Long: `Prints the rows of statistics.csv with totals across projects. When a
project was postprocessed more than once only its latest row is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(opts.Format)
			if err != nil {
				return err
			}
			log.Initialize(opts.Verbosity, cmd.ErrOrStderr())

			settings, err := loadSettings(opts)
			if err != nil {
				return err
			}
			if recent > 0 {
				runs := history.NewStore(filepath.Join(settings.DataDir, history.FileName)).Recent(recent)
				return output.FormatHistory(runs, cmd.OutOrStdout())
			}
			rows, err := store.NewStatisticsLog(filepath.Join(settings.DataDir, constants.StatisticsFile)).ReadAll()
			if err != nil {
				return fmt.Errorf("failed to read statistics: %w", err)
			}
			rows, err = sortStatistics(latestStatistics(rows), sortBy)
			if err != nil {
				return err
			}
			return output.NewFormatter(format).Format(rows, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().StringVar(&sortBy, "sort", "project", "Sort by project, pulls, staled or stars")
	cmd.Flags().IntVar(&recent, "history", 0, "Show the last N stage runs instead of project statistics")
	return cmd
}

// latestStatistics keeps the last row recorded for each project.
func latestStatistics(rows []model.Statistics) []model.Statistics {
	index := make(map[string]int, len(rows))
	var latest []model.Statistics
	for _, r := range rows {
		if i, ok := index[r.Project]; ok {
			latest[i] = r
			continue
		}
		index[r.Project] = len(latest)
		latest = append(latest, r)
	}
	return latest
}

func sortStatistics(rows []model.Statistics, by string) ([]model.Statistics, error) {
	var less func(a, b model.Statistics) bool
	switch by {
	case "", "project":
		less = func(a, b model.Statistics) bool { return a.Project < b.Project }
	case "pulls":
		less = func(a, b model.Statistics) bool { return a.Pulls > b.Pulls }
	case "staled":
		less = func(a, b model.Statistics) bool { return a.Staled > b.Staled }
	case "stars":
		less = func(a, b model.Statistics) bool { return a.Stars > b.Stars }
	default:
		return nil, fmt.Errorf("invalid sort key %q (must be project, pulls, staled or stars)", by)
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	return rows, nil
}
