// internal/domain/notification/run.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a single daily notification batch.
// Corresponds to the 'notification_runs' table.
//
// The three counters are in lines per channel: one supplement's reminder
// to one user over one channel counts once, however many lines share a
// message.
type Run struct {
	ID           uuid.UUID
	RunDate      time.Time // Calendar date the batch was evaluated for
	StartedAt    time.Time
	FinishedAt   *time.Time
	SentCount    int
	SkippedCount int // already delivered, or the chat is unreachable
	FailedCount  int
	Error        string // set when the batch stopped before evaluating users
}

// NewRun starts a run for the given calendar date.
func NewRun(runDate time.Time, startedAt time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		RunDate:   runDate,
		StartedAt: startedAt,
	}
}

// Status is "running", "aborted" or "finished".
func (r *Run) Status() string {
	switch {
	case r.FinishedAt == nil:
		return "running"
	case r.Error != "":
		return "aborted"
	default:
		return "finished"
	}
}
