package schedule

import "time"

// BoundaryType names the phase change that happens tomorrow.
type BoundaryType string

const (
	BoundaryOnBeginsTomorrow BoundaryType = "ON_BEGINS_TOMORROW"
	BoundaryOnEndsTomorrow   BoundaryType = "ON_ENDS_TOMORROW"
)

// Boundary is a phase change. Date is the civil day the new phase starts.
type Boundary struct {
	Type BoundaryType
	Date time.Time
}

// ComputePhaseBoundary reports whether the cycle switches between on and
// off on the day after reference. reference is an instant; its calendar
// date is taken in the schedule's zone.
//
// ok is false when there is no transition tomorrow, and also whenever the
// schedule lacks a start date or a valid cycle.
func ComputePhaseBoundary(s Schedule, reference time.Time) (b Boundary, ok bool) {
	if s.StartDate.IsZero() || !s.Cycling() {
		return Boundary{}, false
	}
	period := s.Cycle.Period()
	if period <= 0 {
		return Boundary{}, false
	}

	tomorrow := DayIn(reference, s.Timezone).AddDate(0, 0, 1)
	elapsed := DaysBetween(s.StartDate, tomorrow)
	if elapsed < 0 {
		return Boundary{}, false
	}

	// The day before the start date is never "on".
	wasOn := elapsed > 0 && (elapsed-1)%period < s.Cycle.On
	willBeOn := elapsed%period < s.Cycle.On

	switch {
	case wasOn && !willBeOn:
		return Boundary{Type: BoundaryOnEndsTomorrow, Date: tomorrow}, true
	case !wasOn && willBeOn:
		return Boundary{Type: BoundaryOnBeginsTomorrow, Date: tomorrow}, true
	default:
		return Boundary{}, false
	}
}
