package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/stalemate/internal/format"
	"github.com/spiffcs/stalemate/internal/history"
)

// FormatHistory prints recent stage runs, oldest first.
func FormatHistory(runs []history.Run, w io.Writer) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No stage runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-12s  %-12s  %9s  %8s  %s\n", "Started", "Stage", "Outcome", "Processed", "Skipped", "Duration")
	for _, r := range runs {
		stage := r.Stage
		if r.Forced {
			stage += " (f)"
		}
		fmt.Fprintf(w, "%-20s  %-12s  %s  %9d  %8d  %s\n",
			r.Started.Local().Format("2006-01-02 15:04:05"),
			stage,
			format.PadRight(colorOutcome(r.Outcome), 12),
			r.Processed,
			r.Skipped,
			r.Duration.Round(time.Millisecond),
		)
		if r.Error != "" && r.Outcome == history.OutcomeFailed {
			fmt.Fprintf(w, "  %s\n", color.RedString(format.Truncate(r.Error, 100)))
		}
	}
	return nil
}

func colorOutcome(o history.Outcome) string {
	switch o {
	case history.OutcomeComplete:
		return color.GreenString(string(o))
	case history.OutcomeInterrupted:
		return color.YellowString(string(o))
	default:
		return color.RedString(string(o))
	}
}
