// Package schedule computes dosing phases and supply for a supplement.
//
// Every function here is pure: results depend only on the arguments, so
// they are safe to call concurrently from any number of goroutines.
package schedule

import "time"

// Cycle is an on/off dosing rhythm: On consecutive days taken, then Off
// consecutive days skipped.
type Cycle struct {
	On  int `json:"on"`
	Off int `json:"off"`
}

// Valid reports whether the cycle can produce phases (On > 0, Off >= 0).
func (c *Cycle) Valid() bool {
	return c != nil && c.On > 0 && c.Off >= 0
}

// Period is On+Off for a valid cycle and 0 otherwise.
func (c *Cycle) Period() int {
	if !c.Valid() {
		return 0
	}
	return c.On + c.Off
}

// Upper bounds on stored quantities. Larger values are treated as unusable
// input so the day arithmetic stays within int range.
const (
	MaxDosesPerDay = 100
	MaxServings    = 1_000_000
)

// Schedule is the canonical view of a supplement that the engine works on.
// StartDate is a civil day (see ParseDay); the zero value means unknown.
type Schedule struct {
	StartDate     time.Time
	DosesPerDay   int
	TotalServings *float64
	Cycle         *Cycle
	Timezone      string
	Dosage        string
	Times         []string
}

// Cycling reports whether the schedule has a usable on/off cycle.
func (s Schedule) Cycling() bool {
	return s.Cycle.Valid()
}

// IsOnDay reports whether day (a civil day) falls in an "on" phase.
// Schedules without a cycle are on every day from the start date.
func IsOnDay(s Schedule, day time.Time) bool {
	if s.StartDate.IsZero() {
		return false
	}
	elapsed := DaysBetween(s.StartDate, day)
	if elapsed < 0 {
		return false
	}
	if !s.Cycling() {
		return true
	}
	return elapsed%s.Cycle.Period() < s.Cycle.On
}
