package supplement

import (
	"time"

	"supplement_tracker/internal/domain/schedule"
)

// Supplement is a user's supplement together with its dosing schedule.
// StartDate is a civil day; the zero value means the user has not set it.
type Supplement struct {
	ID          int64
	UserID      int64
	Name        string
	StartDate   time.Time
	DosesPerDay int      // 0 when unset
	Servings    *float64 // nil when the supply size is unknown
	Cycle       *schedule.Cycle
	Dosage      string
	Times       []string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Schedule builds the engine view of the supplement in zone tz.
func (s *Supplement) Schedule(tz string) schedule.Schedule {
	var cycle *schedule.Cycle
	if s.Cycle != nil {
		c := *s.Cycle
		cycle = &c
	}
	var servings *float64
	if s.Servings != nil {
		v := *s.Servings
		servings = &v
	}
	return schedule.Schedule{
		StartDate:     s.StartDate,
		DosesPerDay:   s.DosesPerDay,
		TotalServings: servings,
		Cycle:         cycle,
		Timezone:      tz,
		Dosage:        s.Dosage,
		Times:         append([]string(nil), s.Times...),
	}
}
