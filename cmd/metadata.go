package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/stalemate/config"
	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/ghclient"
	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/metadata"
	"github.com/spiffcs/stalemate/internal/model"
	"github.com/spiffcs/stalemate/internal/store"
)

// NewCmdMetadata creates the metadata command with subcommands.
func NewCmdMetadata(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Manage repository metadata",
		Long: `Manage the repository metadata database used for project age, language
and stars.

Subcommands:
  fetch      Fetch metadata from the GitHub API
  list       List recorded metadata
  ratelimit  Show GitHub API rate limit status`,
	}

	cmd.AddCommand(NewCmdMetadataFetch(opts))
	cmd.AddCommand(NewCmdMetadataList(opts))
	cmd.AddCommand(NewCmdMetadataRateLimit())
	return cmd
}

// NewCmdMetadataFetch creates the metadata fetch subcommand.
func NewCmdMetadataFetch(opts *Options) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch [owner/repo...]",
		Short: "Fetch repository metadata from GitHub",
		Long: `Fetches creation time, language and stars of each project. Without
arguments every project of the timelines table is fetched. Projects already
recorded are skipped unless --refresh is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize(opts.Verbosity, cmd.ErrOrStderr())
			return runMetadataFetch(cmd.Context(), opts, args, refresh)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch projects that are already recorded")
	return cmd
}

func runMetadataFetch(ctx context.Context, opts *Options, projects []string, refresh bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		projects, err = store.New(settings.DataDir).Projects(constants.TableTimelines)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
	}
	for _, p := range projects {
		if _, _, err := ghclient.SplitProject(p); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return err
	}

	db, err := metadata.Open(settings.MetadataDB)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	fetched, skipped, err := fetchMetadata(ctx, client, db, projects, refresh)
	log.ProgressClear()
	if err != nil {
		return err
	}
	fmt.Printf("Fetched metadata for %d projects (%d already recorded).\n", fetched, skipped)
	return nil
}

// metadataFetcher fetches the metadata of one repository.
type metadataFetcher interface {
	FetchMetadata(ctx context.Context, project string) (model.Metadata, error)
}

// fetchMetadata records the metadata of each project, one at a time to stay
// within the API rate limit.
func fetchMetadata(ctx context.Context, client metadataFetcher, db *metadata.DB, projects []string, refresh bool) (fetched, skipped int, err error) {
	for i, project := range projects {
		if err := ctx.Err(); err != nil {
			return fetched, skipped, err
		}
		if !refresh {
			has, err := db.Has(ctx, project)
			if err != nil {
				return fetched, skipped, err
			}
			if has {
				skipped++
				continue
			}
		}

		m, err := client.FetchMetadata(ctx, project)
		if errors.Is(err, context.Canceled) {
			return fetched, skipped, err
		}
		if err != nil {
			log.Warn("failed to fetch metadata", "project", project, "error", err)
			continue
		}
		if err := db.Put(ctx, m); err != nil {
			return fetched, skipped, err
		}
		fetched++
		log.Progress("metadata: %d/%d projects", i+1, len(projects))
	}
	return fetched, skipped, nil
}

// NewCmdMetadataList creates the metadata list subcommand.
func NewCmdMetadataList(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded repository metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(opts)
			if err != nil {
				return err
			}
			db, err := metadata.Open(settings.MetadataDB)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			all, err := db.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(all) == 0 {
				fmt.Fprintln(w, "No repository metadata recorded. Run 'stalemate metadata fetch'.")
				return nil
			}
			for _, m := range all {
				created := "unknown"
				if !m.CreatedAt.IsZero() {
					created = m.CreatedAt.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%-40s %-12s %7d stars  created %s\n", m.Project, m.Language, m.Watchers, created)
			}
			return nil
		},
	}
}

// NewCmdMetadataRateLimit creates the metadata ratelimit subcommand.
func NewCmdMetadataRateLimit() *cobra.Command {
	return &cobra.Command{
		Use:   "ratelimit",
		Short: "Show current rate limit status",
		Long:  `Display the current GitHub API rate limit status for core and search APIs.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			client, err := ghclient.NewClient(cmd.Context(), cfg.GetGitHubToken())
			if err != nil {
				return err
			}
			quotas, err := client.FetchQuotas(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "GitHub API Rate Limits:")
			fmt.Fprintln(w)
			for _, q := range quotas {
				resetIn := max(time.Until(q.Reset).Round(time.Second), 0)
				fmt.Fprintf(w, "%-11s %d/%d remaining (resets in %s)\n", q.Name+":", q.Remaining, q.Limit, resetIn)
			}
			return nil
		},
	}
}
