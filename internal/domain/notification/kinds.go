// internal/domain/notification/kinds.go
package notification

import "supplement_tracker/internal/domain/schedule"

// Kind identifies what a notification line is about.
type Kind string

const (
	KindOnBeginsTomorrow Kind = Kind(schedule.BoundaryOnBeginsTomorrow)
	KindOnEndsTomorrow   Kind = Kind(schedule.BoundaryOnEndsTomorrow)
	KindLowSupply        Kind = "LOW_SUPPLY"
)

// KindForBoundary maps an engine boundary onto a notification kind.
func KindForBoundary(t schedule.BoundaryType) Kind {
	return Kind(t)
}

// Channel is the medium a notification was delivered through.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelTelegram Channel = "TELEGRAM"
)
