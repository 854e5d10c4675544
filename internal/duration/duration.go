// Package duration provides month and hour arithmetic on timestamps and
// parsing for human-readable duration strings.
package duration

import (
	"fmt"
	"math"
	"time"
)

// Month is the mean Gregorian month (365.2425 / 12 days).
const Month = 2629746 * time.Second

// Months returns d expressed in fractional months.
func Months(d time.Duration) float64 {
	return float64(d) / float64(Month)
}

// Hours returns d expressed in fractional hours.
func Hours(d time.Duration) float64 {
	return d.Hours()
}

// MonthOffset returns the number of whole months between anchor and t,
// rounded towards negative infinity. Times before the anchor yield
// negative offsets.
func MonthOffset(t, anchor time.Time) int {
	return int(math.Floor(Months(t.Sub(anchor))))
}

// Parse parses human-readable durations like "1min", "12h", "30d", "6mo".
func Parse(s string) (time.Duration, error) {
	var n int
	var unit string

	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use e.g., 1min, 12h, 30d)", s)
	}

	switch unit {
	case "s", "sec", "secs":
		return time.Duration(n) * time.Second, nil
	case "m", "min", "mins":
		return time.Duration(n) * time.Minute, nil
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(n) * time.Hour, nil
	case "d", "day", "days":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w", "wk", "wks", "week", "weeks":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case "mo", "month", "months":
		return time.Duration(n) * Month, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}
