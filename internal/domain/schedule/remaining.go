package schedule

import (
	"math"
	"time"
)

// ComputeRemainingDoses estimates how many doses are left of the current
// supply on today (an instant, read in the schedule's zone). The start day
// counts as consumed. The result is never negative.
//
// ok is false when servings are unknown or non-positive, the start date is
// missing, or no positive dose count can be resolved.
func ComputeRemainingDoses(s Schedule, today time.Time) (remaining float64, ok bool) {
	if s.TotalServings == nil || *s.TotalServings <= 0 || s.StartDate.IsZero() {
		return 0, false
	}
	perDay := ResolveDosesPerDay(s)
	if perDay <= 0 {
		return 0, false
	}

	elapsed := DaysBetween(s.StartDate, DayIn(today, s.Timezone)) + 1
	if elapsed < 0 {
		elapsed = 0
	}

	consumed := float64(onDays(elapsed, s.Cycle) * perDay)
	return math.Max(0, *s.TotalServings-consumed), true
}

// maxSupplyDays caps DaysRemaining for absurd servings counts.
const maxSupplyDays = math.MaxInt32

// DaysRemaining converts the remaining doses into calendar days of supply,
// rounding up. ok follows ComputeRemainingDoses.
func DaysRemaining(s Schedule, today time.Time) (days int, ok bool) {
	remaining, ok := ComputeRemainingDoses(s, today)
	if !ok {
		return 0, false
	}
	perDay := ResolveDosesPerDay(s)
	if perDay <= 0 {
		return 0, false
	}
	days = int(math.Min(math.Ceil(remaining/float64(perDay)), maxSupplyDays))
	return days, true
}

// onDays counts the "on" days among the first elapsed days of a schedule.
// A cycle that cannot produce phases counts every day.
func onDays(elapsed int, c *Cycle) int {
	if c == nil || c.On <= 0 {
		return elapsed
	}
	period := c.On + max(0, c.Off)
	full := elapsed / period
	rem := elapsed % period
	return full*c.On + min(c.On, rem)
}
