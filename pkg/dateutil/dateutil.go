// Package dateutil pins the day boundary used by all daily caps: a fixed
// calendar day in UTC.
package dateutil

import "time"

// DayStart returns 00:00:00 UTC of the day containing t.
func DayStart(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// DayWindow returns the [start, end) UTC day window containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := DayStart(t)
	return start, start.Add(24 * time.Hour)
}

// DateKey returns the UTC calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
