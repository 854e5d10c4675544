package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/stalemate/internal/format"
	"github.com/spiffcs/stalemate/internal/model"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Links turns project names into terminal hyperlinks. Nil means links
	// are used when stdout is a terminal.
	Links *bool
}

// Column widths
const (
	colProject = 32
	colLang    = 10
	colNum     = 7
	colAge     = 7
	colShare   = 6
)

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

func (f *TableFormatter) links() bool {
	if f.Links != nil {
		return *f.Links
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Format outputs the statistics as a table, one project per line
func (f *TableFormatter) Format(stats []model.Statistics, w io.Writer) error {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No project statistics found. Run postprocess first.")
		return nil
	}

	numbers := []string{"Stars", "Age", "PRs", "Open", "Closed", "Merged", "Staled", "Stale%", "SClosed"}
	widths := []int{colNum, colAge, colNum, colNum, colNum, colNum, colNum, colShare, colNum}

	var header strings.Builder
	header.WriteString(format.PadRight("Project", colProject) + "  ")
	header.WriteString(format.PadRight("Language", colLang))
	for i, name := range numbers {
		header.WriteString("  " + format.PadLeft(name, widths[i]))
	}
	fmt.Fprintln(w, header.String())
	fmt.Fprintln(w, strings.Repeat("-", format.DisplayWidth(header.String())))

	links := f.links()
	for _, s := range stats {
		project := format.Truncate(s.Project, colProject)
		padded := format.PadRight(project, colProject)
		if links {
			padded = hyperlink(project, "https://github.com/"+s.Project) + strings.Repeat(" ", colProject-format.DisplayWidth(project))
		}

		cells := []string{
			strconv.Itoa(s.Stars),
			format.Months(s.Age),
			strconv.Itoa(s.Pulls),
			strconv.Itoa(s.Open),
			strconv.Itoa(s.Closed),
			strconv.Itoa(s.Merged),
			strconv.Itoa(s.Staled),
			colorShare(s.Staled, s.Pulls),
			strconv.Itoa(s.StaleClosed),
		}

		var line strings.Builder
		line.WriteString(padded + "  ")
		line.WriteString(format.PadRight(format.Truncate(s.Language, colLang), colLang))
		for i, cell := range cells {
			line.WriteString("  " + format.PadLeft(cell, widths[i]))
		}
		fmt.Fprintln(w, line.String())
	}

	printFooterSummary(Summarize(stats), w)
	return nil
}

// colorShare colors the stale share of a project's pull requests.
func colorShare(staled, pulls int) string {
	share := format.Percent(staled, pulls)
	if pulls == 0 {
		return share
	}
	switch pct := staled * 100 / pulls; {
	case pct >= 50:
		return color.RedString(share)
	case pct >= 20:
		return color.YellowString(share)
	default:
		return color.GreenString(share)
	}
}

// printFooterSummary prints the totals across projects
func printFooterSummary(t Totals, w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintf(w, "  %d projects, %d pull requests (%d open, %d closed, %d merged)\n",
		t.Projects, t.Pulls, t.Open, t.Closed, t.Merged)
	fmt.Fprintf(w, "  %s %d staled (%s), %d closed by the stale bot\n",
		color.YellowString("●"), t.Staled, format.Percent(t.Staled, t.Pulls), t.StaleClosed)
}
