package schedule

import "time"

// Clock supplies "now" for a schedule evaluated in a given zone.
type Clock interface {
	Now(tz string) time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now(string) time.Time { return time.Now() }

// FixedClock pretends the calendar date is Day in every zone it is asked
// about. It backs the "pretend date" simulation.
type FixedClock struct {
	Day time.Time
}

func (c FixedClock) Now(tz string) time.Time { return Midday(c.Day, tz) }
