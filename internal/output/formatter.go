// Package output renders project statistics and the stage run history.
package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/stalemate/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(stats []model.Statistics, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	default:
		return &TableFormatter{}
	}
}

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Totals sums the counts of every project.
type Totals struct {
	Projects    int `json:"projects"`
	Pulls       int `json:"pulls"`
	Open        int `json:"open"`
	Closed      int `json:"closed"`
	Merged      int `json:"merged"`
	Staled      int `json:"staled"`
	StaleClosed int `json:"stale_closed"`
}

// Summarize adds up the statistics rows.
func Summarize(stats []model.Statistics) Totals {
	t := Totals{Projects: len(stats)}
	for _, s := range stats {
		t.Pulls += s.Pulls
		t.Open += s.Open
		t.Closed += s.Closed
		t.Merged += s.Merged
		t.Staled += s.Staled
		t.StaleClosed += s.StaleClosed
	}
	return t
}
