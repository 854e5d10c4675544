package cmd

import (
	"fmt"
	"os"

	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/tui"
)

// tuiEnv overrides TUI auto-detection when --tui is not given.
const tuiEnv = "STALEMATE_TUI"

// tuiFlag is the tri-state --tui flag: true, false or auto (nil).
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return fmt.Sprint(*f.opts.TUI)
}

func (f *tuiFlag) Set(s string) error {
	v, err := parseTUI(s)
	if err != nil {
		return err
	}
	f.opts.TUI = v
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

func parseTUI(s string) (*bool, error) {
	var v bool
	switch s {
	case "true", "1", "yes":
		v = true
	case "false", "0", "no":
	case "auto", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	return &v, nil
}

// shouldUseTUI resolves the display mode. Verbose logging always disables
// the TUI so the log lines stay readable.
func shouldUseTUI(opts *Options) bool {
	if opts.Verbosity > 0 {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	if env, ok := os.LookupEnv(tuiEnv); ok {
		v, err := parseTUI(env)
		if err != nil {
			log.Warn("ignoring "+tuiEnv, "error", err)
		} else if v != nil {
			return *v
		}
	}
	return tui.ShouldUseTUI()
}
