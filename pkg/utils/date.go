package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeNow returns the current local time without its monotonic reading, so
// values compare equal after being persisted and read back.
func TimeNow() time.Time {
	return time.Now().Round(0)
}

// PrettyDate formats t the way alerts are printed to the user.
func PrettyDate(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// RelativeDate formats t relative to now, e.g. "3 minutes ago".
func RelativeDate(t time.Time) string {
	return humanize.Time(t)
}
