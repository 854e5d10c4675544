package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "stalemate",
		Short: "Measure the effects of stale bots on pull request workflows",
		Long: `A research pipeline that reconstructs pull request lifecycles from
timeline archives and measures how projects change around the adoption of a
stale bot.

Stages run in order: process -> postprocess -> features -> indicators. Each
stage reads the previous stage's tables from the data directory and skips
projects whose outputs already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd.Context(), opts, stageNames()...)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add run flags to root command so `stalemate` and `stalemate run` work identically
	addRunFlags(rootCmd.Flags(), opts)
	addGlobalFlags(rootCmd.PersistentFlags(), opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdRun(opts))
	rootCmd.AddCommand(NewCmdStages(opts)...)
	rootCmd.AddCommand(NewCmdStats(opts))
	rootCmd.AddCommand(NewCmdMetadata(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
