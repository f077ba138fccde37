// utils/dates.go
package utils

import "time"

// BeginningOfDay returns midnight of t's calendar day in t's location. The
// history statistics use it to bucket audit rows into "today" and "last 7
// days" windows.
func BeginningOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts whole calendar days from start to end. The time of day
// is ignored, so 23:59 to 00:01 the next day still counts as one day. The
// retention sweeper compares artifact ages against this.
func DaysBetween(start, end time.Time) int {
	return int(BeginningOfDay(end).Sub(BeginningOfDay(start)) / (24 * time.Hour))
}
