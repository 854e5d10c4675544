package cmd

import (
	"github.com/spf13/pflag"
)

// Options holds the shared command-line options for the stalemate CLI.
type Options struct {
	Format    string
	DataDir   string
	Verbosity int
	Workers   int   // 0 = use the configured worker count
	Force     bool  // reprocess projects whose outputs already exist
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithDataDir overrides the configured data directory.
func WithDataDir(dir string) Option {
	return func(o *Options) {
		o.DataDir = dir
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithForce reprocesses up to date projects.
func WithForce(force bool) Option {
	return func(o *Options) {
		o.Force = force
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// addRunFlags adds the flags shared by every pipeline command.
func addRunFlags(fs *pflag.FlagSet, opts *Options) {
	fs.BoolVarP(&opts.Force, "force", "f", false, "Reprocess projects whose outputs already exist")
	fs.IntVarP(&opts.Workers, "workers", "w", 0, "Number of parallel workers (default: config or CPU count)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	fs.Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")

	// Profiling flags
	fs.StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	fs.StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

// addGlobalFlags adds the flags every command accepts.
func addGlobalFlags(fs *pflag.FlagSet, opts *Options) {
	fs.CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	fs.StringVarP(&opts.DataDir, "data-dir", "d", "", "Data directory (default: config or ./data)")
}
