// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines operations for notification runs and deliveries.
type Repository interface {
	// Run methods
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*Run, error)

	// Delivery methods

	// HasDelivery reports whether the given line was already delivered over channel.
	HasDelivery(ctx context.Context, userID, supplementID int64, kind Kind, eventDate time.Time, channel Channel) (bool, error)
	// RecordDelivery stores d; a duplicate key yields database.ErrDeliveryExists.
	RecordDelivery(ctx context.Context, d *Delivery) error
}
