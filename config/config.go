package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/duration"
	"github.com/spiffcs/stalemate/internal/store"
)

// Config represents the application configuration as read from YAML.
// Unset fields fall back to defaults when resolved with Settings.
type Config struct {
	DataDir       string `yaml:"data_dir,omitempty"`
	Workers       *int   `yaml:"workers,omitempty"`
	ReferenceTime string `yaml:"reference_time,omitempty"`
	WarningWindow string `yaml:"warning_window,omitempty"`
	MetadataDB    string `yaml:"metadata_db,omitempty"`

	Actors *ActorOverrides `yaml:"actors,omitempty"`

	// Anchors maps a project to the timestamp its stale bot was adopted,
	// for projects whose first stale event is not the adoption.
	Anchors map[string]string `yaml:"anchors,omitempty"`
}

// ActorOverrides names the accounts the classifier treats specially.
type ActorOverrides struct {
	StaleBot   *string `yaml:"stale_bot,omitempty"`
	Automation *string `yaml:"automation,omitempty"`
	Ghost      *string `yaml:"ghost,omitempty"`
}

// Settings is the resolved configuration used by the pipeline.
type Settings struct {
	DataDir       string
	Workers       int
	ReferenceTime time.Time
	WarningWindow time.Duration
	MetadataDB    string

	StaleBot   string
	Automation string
	Ghost      string

	Anchors map[string]time.Time
}

// DefaultDataDir is the data directory used when none is configured.
const DefaultDataDir = "data"

// DefaultWorkers returns the default worker count.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// DefaultAnchors returns the built-in adoption anchors.
func DefaultAnchors() map[string]string {
	return map[string]string{
		constants.CalypsoProject: constants.CalypsoAnchor,
	}
}

// Settings resolves the configuration against the defaults.
func (c *Config) Settings() (Settings, error) {
	s := Settings{
		DataDir:       DefaultDataDir,
		Workers:       DefaultWorkers(),
		ReferenceTime: constants.ReferenceTime,
		WarningWindow: constants.WarningWindow,
		StaleBot:      constants.StaleBotActor,
		Automation:    constants.AutomationActor,
		Ghost:         constants.GhostActor,
		Anchors:       make(map[string]time.Time),
	}

	if c.DataDir != "" {
		s.DataDir = c.DataDir
	}
	if c.Workers != nil {
		if *c.Workers < 1 {
			return Settings{}, fmt.Errorf("workers must be positive, got %d", *c.Workers)
		}
		s.Workers = *c.Workers
	}
	if c.ReferenceTime != "" {
		t, err := store.ParseTime(c.ReferenceTime)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid reference_time: %w", err)
		}
		s.ReferenceTime = t
	}
	if c.WarningWindow != "" {
		d, err := duration.Parse(c.WarningWindow)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid warning_window: %w", err)
		}
		s.WarningWindow = d
	}
	s.MetadataDB = c.MetadataDB
	if s.MetadataDB == "" {
		s.MetadataDB = filepath.Join(s.DataDir, constants.MetadataFile)
	}

	if a := c.Actors; a != nil {
		if a.StaleBot != nil {
			s.StaleBot = *a.StaleBot
		}
		if a.Automation != nil {
			s.Automation = *a.Automation
		}
		if a.Ghost != nil {
			s.Ghost = *a.Ghost
		}
	}

	anchors := c.Anchors
	if anchors == nil {
		anchors = DefaultAnchors()
	}
	for project, v := range anchors {
		if v == "" {
			continue
		}
		t, err := store.ParseTime(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid anchor for %s: %w", project, err)
		}
		s.Anchors[project] = t
	}

	return s, nil
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".stalemate"
	}
	return filepath.Join(configDir, "stalemate")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".stalemate.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the global config from the user config directory, then merges
// any local .stalemate.yaml on top (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at the given paths. Missing
// files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{
		DataDir:       pick(local.DataDir, global.DataDir),
		ReferenceTime: pick(local.ReferenceTime, global.ReferenceTime),
		WarningWindow: pick(local.WarningWindow, global.WarningWindow),
		MetadataDB:    pick(local.MetadataDB, global.MetadataDB),
		Workers:       global.Workers,
	}
	if local.Workers != nil {
		result.Workers = local.Workers
	}

	result.Actors = mergeActors(global.Actors, local.Actors)

	// Anchors merge per project.
	if global.Anchors != nil || local.Anchors != nil {
		result.Anchors = make(map[string]string, len(global.Anchors)+len(local.Anchors))
		for k, v := range global.Anchors {
			result.Anchors[k] = v
		}
		for k, v := range local.Anchors {
			result.Anchors[k] = v
		}
	}

	return result
}

func pick(local, global string) string {
	if local != "" {
		return local
	}
	return global
}

func mergeActors(global, local *ActorOverrides) *ActorOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &ActorOverrides{}

	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.StaleBot != nil {
			result.StaleBot = local.StaleBot
		}
		if local.Automation != nil {
			result.Automation = local.Automation
		}
		if local.Ghost != nil {
			result.Ghost = local.Ghost
		}
	}

	if result.StaleBot == nil && result.Automation == nil && result.Ghost == nil {
		return nil
	}
	return result
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(ConfigPath(), string(data))
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// Anchor returns the adoption anchor configured for a project, or the zero
// time when the first stale event is the anchor.
func (s Settings) Anchor(project string) time.Time {
	return s.Anchors[project]
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	workers := DefaultWorkers()
	staleBot := constants.StaleBotActor
	automation := constants.AutomationActor
	ghost := constants.GhostActor

	return &Config{
		DataDir:       DefaultDataDir,
		Workers:       &workers,
		ReferenceTime: constants.ReferenceTime.Format(time.RFC3339),
		WarningWindow: "1m",
		MetadataDB:    filepath.Join(DefaultDataDir, constants.MetadataFile),
		Actors: &ActorOverrides{
			StaleBot:   &staleBot,
			Automation: &automation,
			Ghost:      &ghost,
		},
		Anchors: DefaultAnchors(),
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# stalemate configuration file
# See: stalemate config defaults  (for all available options)

# Directory holding the per project tables
data_dir: data

# Parallel workers (defaults to the number of CPUs)
# workers: 8

# Reference time for pull requests still open at archive time
# reference_time: 2022-07-01T00:00:00Z

# Accounts the classifier treats specially
# actors:
#   stale_bot: stale[bot]
#   automation: github-actions[bot]
#   ghost: ghost

# Projects whose stale bot adoption is not their first stale event
# anchors:
#   automattic/wp-calypso: 2019-04-20T05:46:48Z
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// Set assigns a scalar configuration key. The value is checked by resolving
// the resulting settings.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "data_dir":
		next.DataDir = value
	case "metadata_db":
		next.MetadataDB = value
	case "reference_time":
		next.ReferenceTime = value
	case "warning_window":
		next.WarningWindow = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid workers %q: %w", value, err)
		}
		next.Workers = &n
	case "token":
		return fmt.Errorf("tokens cannot be stored in config files for security reasons. Set the GITHUB_TOKEN environment variable instead")
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	if _, err := next.Settings(); err != nil {
		return err
	}
	*c = next
	return nil
}
