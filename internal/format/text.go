// Package format provides shared text formatting utilities for terminal output.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal columns,
// ignoring ANSI escape sequences.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// Truncate shortens plain text to maxWidth columns, ending in "...".
func Truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces to the target visible width.
func PadRight(s string, targetWidth int) string {
	if w := DisplayWidth(s); w < targetWidth {
		return s + strings.Repeat(" ", targetWidth-w)
	}
	return s
}

// PadLeft right-aligns s within the target visible width.
func PadLeft(s string, targetWidth int) string {
	if w := DisplayWidth(s); w < targetWidth {
		return strings.Repeat(" ", targetWidth-w) + s
	}
	return s
}

// Months formats a month count: "0.5mo", "14mo", "3.1y" past two years.
func Months(m float64) string {
	switch {
	case m <= 0:
		return "-"
	case m < 10:
		return fmt.Sprintf("%.1fmo", m)
	case m < 24:
		return fmt.Sprintf("%.0fmo", m)
	default:
		return fmt.Sprintf("%.1fy", m/12)
	}
}

// Percent formats part/total as a whole percentage, or "-" when total is 0.
func Percent(part, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", part*100/total)
}
