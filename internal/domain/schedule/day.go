package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimezone anchors day boundaries for schedules without a zone.
const DefaultTimezone = "America/New_York"

// DayLayout is the ISO calendar date layout used for start dates.
const DayLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// LoadLocation resolves an IANA zone name. An empty name is rejected
// rather than silently mapped to UTC.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("empty timezone")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// locationOrDefault never fails: unknown or empty zones fall back to
// DefaultTimezone, and to UTC if the zone database is unavailable.
func locationOrDefault(tz string) *time.Location {
	if loc, err := LoadLocation(tz); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// ParseDay parses a YYYY-MM-DD date, tolerating a trailing time part
// ("2024-03-01T08:00:00Z" yields 2024-03-01).
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DayLayout) && (s[len(DayLayout)] == 'T' || s[len(DayLayout)] == ' ') {
		s = s[:len(DayLayout)]
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// CivilDay strips the time of day from t, keeping the calendar date as
// seen in t's own location. The result is midnight UTC.
func CivilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayIn returns the calendar date of instant t in zone tz.
func DayIn(t time.Time, tz string) time.Time {
	return CivilDay(t.In(locationOrDefault(tz)))
}

// DaysBetween counts whole calendar days from a to b (negative when b is
// earlier). Both arguments are reduced to civil days first, so DST
// transitions never produce fractional days.
func DaysBetween(a, b time.Time) int {
	return int((CivilDay(b).Unix() - CivilDay(a).Unix()) / secondsPerDay)
}

// Midday returns noon of civil day d in zone tz. Noon keeps the instant on
// the same calendar date whatever the zone's DST rules are.
func Midday(d time.Time, tz string) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, locationOrDefault(tz))
}
