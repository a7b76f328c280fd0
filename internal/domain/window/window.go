// Package window defines the reporting windows used by the event log
// aggregation. Boundaries are computed in the timestamp's own location so a
// board in Berlin rolls over at Berlin midnight.
package window

import "time"

// Window identifies a reporting period.
type Window string

// Supported reporting windows.
const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
	Year  Window = "year"
)

// All lists the windows in display order.
func All() []Window {
	return []Window{Day, Week, Month, Year}
}

// Start returns the first instant of the window containing now.
// Day starts at local midnight, week at the most recent Monday 00:00,
// month on the first, year on Jan 1.
func Start(w Window, now time.Time) time.Time {
	switch w {
	case Day:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case Week:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		// Weekday() counts Sunday as 0; shift so Monday is the anchor.
		offset := (int(now.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Month:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case Year:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	}
	return now
}
