// Package localday provides calendar-day arithmetic in a fixed named
// timezone. The approval lock window is defined in terms of local calendar
// days, not 24h intervals, so a 22:00 event start still counts as day zero.
package localday

import "time"

// DayNumber returns the calendar day of t in loc, counted as days since the
// Unix epoch. Two instants share a day number exactly when they fall on the
// same local calendar date.
func DayNumber(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	y, m, d := local.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// Location resolves an IANA timezone name, falling back to UTC when the name
// cannot be loaded. Callers should treat the fallback as a configuration
// error worth logging.
func Location(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}
