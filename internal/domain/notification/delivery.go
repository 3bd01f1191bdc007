// internal/domain/notification/delivery.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Delivery records that one notification line reached one user over one channel.
// Corresponds to the 'notification_deliveries' table. The tuple
// (UserID, SupplementID, Kind, EventDate, Channel) is unique.
type Delivery struct {
	ID           int64
	RunID        uuid.UUID
	UserID       int64
	SupplementID int64
	Kind         Kind
	EventDate    time.Time // Day the phase changes, or the run date for supply warnings
	Channel      Channel
	SentAt       time.Time
}
