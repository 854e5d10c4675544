package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/pipeline"
	"github.com/spiffcs/stalemate/internal/tui"
)

// stageCommands describes the per stage subcommands in run order.
var stageCommands = []struct {
	name  string
	task  tui.TaskID
	short string
	long  string
}{
	{
		name:  "process",
		task:  tui.TaskProcess,
		short: "Classify raw timelines into pull request lifecycles",
		long: `Reads timelines/<owner>/<repo>.csv and writes dataframe/<owner>/<repo>.csv
with the resolution status, contributor flag and stale markers of every
timeline row.`,
	},
	{
		name:  "postprocess",
		task:  tui.TaskPostprocess,
		short: "Tag core contributors and record project statistics",
		long: `Reads the dataframe table, marks rows by core contributors and writes the
dataset table. One summary row per project is appended to statistics.csv;
--force truncates it first.`,
	},
	{
		name:  "features",
		task:  tui.TaskFeatures,
		short: "Measure per pull request features",
		long: `Reads the dataset, pulls and patches tables and writes one feature record
per pull request to the features table. Missing pulls or patches tables are
treated as empty.`,
	},
	{
		name:  "indicators",
		task:  tui.TaskIndicators,
		short: "Aggregate monthly indicators around stale bot adoption",
		long: `Reads the dataset and features tables and writes features_fixed, activity
and indicators. Projects without stale bot activity are skipped.`,
	},
}

// NewCmdRun creates the run command, which runs every stage in order.
func NewCmdRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage of the pipeline (same as root stalemate)",
		Long: `Runs process, postprocess, features and indicators in order. Projects whose
outputs already exist are skipped unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd.Context(), opts, stageNames()...)
		},
	}
	addRunFlags(cmd.Flags(), opts)
	return cmd
}

// NewCmdStages creates one command per pipeline stage.
func NewCmdStages(opts *Options) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(stageCommands))
	for _, sc := range stageCommands {
		cmd := &cobra.Command{
			Use:   sc.name,
			Short: sc.short,
			Long:  sc.long,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStages(cmd.Context(), opts, sc.name)
			},
		}
		addRunFlags(cmd.Flags(), opts)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func stageNames() []string {
	names := make([]string, len(stageCommands))
	for i, sc := range stageCommands {
		names[i] = sc.name
	}
	return names
}

// runStages runs the named stages in order. A cancelled context, from
// SIGINT or Ctrl+C in the TUI, stops the current stage with
// pipeline.ErrInterrupted.
func runStages(ctx context.Context, opts *Options, names ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, cleanup, err := setupRuntime(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}
	st, stats, db, err := openStores(settings)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tasks []tui.TaskID
	for _, sc := range stageCommands {
		if slices.Contains(names, sc.name) {
			tasks = append(tasks, sc.task)
		}
	}
	rt.startTUI(tui.TasksFor(tasks...), cancel)

	p := newPipeline(settings, opts, st, stats, db, rt.events)
	var stages []pipeline.Stage
	for _, name := range names {
		s, ok := p.Stage(name)
		if !ok {
			rt.close()
			return fmt.Errorf("unknown stage %q", name)
		}
		stages = append(stages, s)
	}

	log.Info("running pipeline", "stages", names, "data_dir", settings.DataDir, "workers", settings.Workers, "force", opts.Force)
	for _, s := range stages {
		if err = p.Run(ctx, s); err != nil {
			break
		}
	}
	rt.close()
	return err
}
