package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/supplement"
	"supplement_tracker/internal/domain/user"
)

// SupplementSummary is the data behind one summary card.
type SupplementSummary struct {
	SupplementID   int64
	Name           string
	DosesPerDay    int
	RemainingDoses *float64 // nil when the supply is unknown
	DaysRemaining  *int
	Cycling        bool
	OnToday        bool
	Boundary       *schedule.Boundary // set when the phase changes tomorrow
}

type SummaryService struct {
	userRepo        user.Repository
	supplementRepo  supplement.Repository
	clock           schedule.Clock
	defaultTimezone string
}

func NewSummaryService(ur user.Repository, sr supplement.Repository, clock schedule.Clock, defaultTimezone string) *SummaryService {
	if defaultTimezone == "" {
		defaultTimezone = schedule.DefaultTimezone
	}
	return &SummaryService{userRepo: ur, supplementRepo: sr, clock: clock, defaultTimezone: defaultTimezone}
}

// Summaries returns one card per supplement of userID, evaluated for the
// user's current calendar day.
func (s *SummaryService) Summaries(ctx context.Context, userID int64) ([]SupplementSummary, time.Time, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, time.Time{}, err
	}
	tz := u.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}
	supplements, err := s.supplementRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to list supplements: %w", err)
	}

	now := s.clock.Now(tz)
	today := schedule.DayIn(now, tz)
	out := make([]SupplementSummary, 0, len(supplements))
	for _, sp := range supplements {
		out = append(out, Summarize(sp.ID, sp.Name, sp.Schedule(tz), now))
	}
	return out, today, nil
}

// Summarize evaluates one schedule at instant now.
func Summarize(id int64, name string, sch schedule.Schedule, now time.Time) SupplementSummary {
	sum := SupplementSummary{
		SupplementID: id,
		Name:         name,
		DosesPerDay:  schedule.ResolveDosesPerDay(sch),
		Cycling:      sch.Cycling(),
		OnToday:      schedule.IsOnDay(sch, schedule.DayIn(now, sch.Timezone)),
	}
	if rem, ok := schedule.ComputeRemainingDoses(sch, now); ok {
		sum.RemainingDoses = &rem
	}
	if days, ok := schedule.DaysRemaining(sch, now); ok {
		sum.DaysRemaining = &days
	}
	if b, ok := schedule.ComputePhaseBoundary(sch, now); ok {
		sum.Boundary = &b
	}
	return sum
}

// FormatSummary renders summary cards as plain text.
func FormatSummary(today time.Time, cards []SupplementSummary) string {
	if len(cards) == 0 {
		return "No supplements yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Summary for %s\n", today.Format("Mon, Jan 2 2006"))
	for _, c := range cards {
		fmt.Fprintf(&b, "\n%s\n", c.Name)
		fmt.Fprintf(&b, "  %d dose(s) per day", c.DosesPerDay)
		if c.Cycling {
			if c.OnToday {
				b.WriteString(", ON today")
			} else {
				b.WriteString(", OFF today")
			}
		}
		b.WriteString("\n")
		if c.RemainingDoses != nil && c.DaysRemaining != nil {
			fmt.Fprintf(&b, "  %s doses left, about %d day(s)\n", formatDoses(*c.RemainingDoses), *c.DaysRemaining)
		}
		if c.Boundary != nil {
			switch c.Boundary.Type {
			case schedule.BoundaryOnBeginsTomorrow:
				b.WriteString("  ON cycle begins tomorrow\n")
			case schedule.BoundaryOnEndsTomorrow:
				b.WriteString("  OFF cycle begins tomorrow\n")
			}
		}
	}
	return b.String()
}

func formatDoses(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
