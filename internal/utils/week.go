package utils

import "time"

// WeekStart returns the canonical start of the scheduling week containing t:
// Monday 00:00 in loc, expressed in UTC. Every lookup and write keyed by week
// must go through this function.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	// time.Weekday has Sunday = 0; shift so Monday = 0.
	offset := (int(local.Weekday()) + 6) % 7
	start := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	return start.UTC()
}
