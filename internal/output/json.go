package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/stalemate/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

type projectJSON struct {
	Project           string  `json:"project"`
	Language          string  `json:"language"`
	Stars             int     `json:"stars"`
	Age               float64 `json:"age"`
	Contributors      int     `json:"contributors"`
	Maintainers       int     `json:"maintainers"`
	Pulls             int     `json:"pulls"`
	Open              int     `json:"open"`
	Closed            int     `json:"closed"`
	Merged            int     `json:"merged"`
	Staled            int     `json:"staled"`
	StaledMerged      int     `json:"staled_merged"`
	StaleClosed       int     `json:"stale_closed"`
	StaleClosedMerged int     `json:"stale_closed_merged"`
}

// JSONOutput wraps the projects with their totals
type JSONOutput struct {
	Projects []projectJSON `json:"projects"`
	Totals   Totals        `json:"totals"`
}

// Format outputs the statistics and their totals as JSON
func (f *JSONFormatter) Format(stats []model.Statistics, w io.Writer) error {
	out := JSONOutput{Projects: make([]projectJSON, 0, len(stats)), Totals: Summarize(stats)}
	for _, s := range stats {
		out.Projects = append(out.Projects, projectJSON(s))
	}

	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(out)
}
