package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/stalemate/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	show := NewCmdConfigShow()
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

Without a subcommand, prints the merged configuration like 'config show'.`,
		RunE: show.RunE,
	}
	cmd.Flags().AddFlagSet(show.Flags())

	cmd.AddCommand(NewCmdConfigInit())
	cmd.AddCommand(NewCmdConfigPath())
	cmd.AddCommand(NewCmdConfigDefaults())
	cmd.AddCommand(show)
	cmd.AddCommand(NewCmdConfigSet())
	return cmd
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit() *cobra.Command {
	var global, local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Create a starter config file.

--global writes the user config file, --local writes ./.stalemate.yaml.
Without either flag you are asked which one to create.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global && local {
				return fmt.Errorf("cannot specify both --global and --local")
			}
			paths := config.GetConfigPaths()
			target := paths.GlobalPath
			switch {
			case local:
				target = paths.LocalPath
			case !global:
				var err error
				if target, err = promptConfigTarget(cmd.InOrStdin(), cmd.OutOrStdout(), paths); err != nil {
					return err
				}
			}
			return initConfig(cmd.OutOrStdout(), target)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the user config file")
	cmd.Flags().BoolVar(&local, "local", false, "Create ./.stalemate.yaml")
	return cmd
}

func promptConfigTarget(in io.Reader, out io.Writer, paths config.ConfigPathInfo) (string, error) {
	fmt.Fprintln(out, "Where would you like to create the config file?")
	fmt.Fprintf(out, "  [1] %s (every data directory)\n", paths.GlobalPath)
	fmt.Fprintf(out, "  [2] %s (this directory only)\n", paths.LocalPath)
	fmt.Fprint(out, "Choose [1/2]: ")

	choice, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && choice == "" {
		return "", fmt.Errorf("failed to read choice: %w", err)
	}
	switch choice = strings.TrimSpace(choice); choice {
	case "1":
		return paths.GlobalPath, nil
	case "2":
		return paths.LocalPath, nil
	default:
		return "", fmt.Errorf("invalid choice %q (must be 1 or 2)", choice)
	}
}

func initConfig(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.SaveTo(path, config.MinimalConfig()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s\nRun 'stalemate config defaults' to see every option.\n", path)
	return nil
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := config.GetConfigPaths()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "global: %s (%s)\n", paths.GlobalPath, existence(paths.GlobalExists))
			fmt.Fprintf(w, "local:  %s (%s)\n", paths.LocalPath, existence(paths.LocalExists))
			fmt.Fprintln(w, "Local settings override global ones, which override the defaults.")
			return nil
		},
	}
}

func existence(ok bool) string {
	if ok {
		return "exists"
	}
	return "not found"
}

// NewCmdConfigDefaults creates the config defaults subcommand.
func NewCmdConfigDefaults() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show every default configuration value",
		Long: `Show the configuration with every default value filled in. Redirect it
to start a config file:
  stalemate config defaults > ~/.config/stalemate/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeConfig(cmd.OutOrStdout(), config.DefaultConfig(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (yaml, json)")
	return cmd
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow() *cobra.Command {
	var format string
	var resolved bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		Long: `Show the configuration after merging the defaults with the global and
local files. --resolved prints the settings the stages actually use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !resolved {
				return writeConfig(cmd.OutOrStdout(), cfg, format)
			}
			s, err := cfg.Settings()
			if err != nil {
				return err
			}
			writeSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (yaml, json)")
	cmd.Flags().BoolVar(&resolved, "resolved", false, "Show resolved settings instead of the file contents")
	return cmd
}

func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		s, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("invalid format %q (must be yaml or json)", format)
	}
}

func writeSettings(w io.Writer, s config.Settings) {
	fmt.Fprintf(w, "data_dir:        %s\n", s.DataDir)
	fmt.Fprintf(w, "metadata_db:     %s\n", s.MetadataDB)
	fmt.Fprintf(w, "workers:         %d\n", s.Workers)
	fmt.Fprintf(w, "reference_time:  %s\n", s.ReferenceTime.Format(time.RFC3339))
	fmt.Fprintf(w, "warning_window:  %s\n", s.WarningWindow)
	fmt.Fprintf(w, "stale_bot:       %s\n", s.StaleBot)
	fmt.Fprintf(w, "automation:      %s\n", s.Automation)
	fmt.Fprintf(w, "ghost:           %s\n", s.Ghost)

	projects := make([]string, 0, len(s.Anchors))
	for p := range s.Anchors {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	fmt.Fprintln(w, "anchors:")
	for _, p := range projects {
		fmt.Fprintf(w, "  %s: %s\n", p, s.Anchors[p].Format(time.RFC3339))
	}
}

// NewCmdConfigSet creates the config set subcommand.
func NewCmdConfigSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the global config file",
		Long: `Set a value in the global config file. Keys:
  data_dir        directory holding the per project tables
  metadata_db     path of the repository metadata database
  workers         number of parallel workers
  reference_time  resolution time of pull requests still open (RFC 3339)
  warning_window  longest gap between a stale warning and the bot's close (e.g. 1m)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Local overrides must not leak into the global file.
			cfg, err := config.LoadFrom(config.ConfigPath(), "")
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", args[0], args[1], config.ConfigPath())
			return nil
		},
	}
}
