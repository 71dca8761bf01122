// Package timeutil formats timestamps for CLI output.
package timeutil

import (
	"fmt"
	"time"
)

// localTimeFormat is the layout for absolute times in CLI tables.
const localTimeFormat = "Mon Jan 2 15:04:05 2006"

// FormatTime renders a timestamp in the local timezone.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(localTimeFormat)
}

// FormatAge renders how long ago t was, coarsened to the largest useful unit
// ("12s", "5m", "3h", "2d"). Zero and future timestamps render as "-".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	if d < 0 {
		return "-"
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
