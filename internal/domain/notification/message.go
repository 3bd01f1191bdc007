// internal/domain/notification/message.go
package notification

import (
	"fmt"
	"strings"
	"time"
)

// Line is one human-readable entry of a user's daily notification.
type Line struct {
	SupplementID   int64
	SupplementName string
	Kind           Kind
	EventDate      time.Time
	DaysLeft       int // only for KindLowSupply
}

// Text renders the line, e.g. "Magnesium: ON cycle begins tomorrow."
func (l Line) Text() string {
	switch l.Kind {
	case KindOnBeginsTomorrow:
		return fmt.Sprintf("%s: ON cycle begins tomorrow.", l.SupplementName)
	case KindOnEndsTomorrow:
		return fmt.Sprintf("%s: OFF cycle begins tomorrow.", l.SupplementName)
	case KindLowSupply:
		unit := "days"
		if l.DaysLeft == 1 {
			unit = "day"
		}
		return fmt.Sprintf("%s: about %d %s of supply left.", l.SupplementName, l.DaysLeft, unit)
	default:
		return fmt.Sprintf("%s: %s", l.SupplementName, l.Kind)
	}
}

// Subject is the e-mail subject for a notification about runDate.
func Subject(runDate time.Time) string {
	return fmt.Sprintf("Supplement cycle changes for %s", runDate.Format("Mon, Jan 2"))
}

// ComposeBody builds the plain-text body shared by e-mail and Telegram.
func ComposeBody(recipientName string, lines []Line) string {
	var b strings.Builder
	if recipientName != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", recipientName)
	}
	b.WriteString("Heads up for tomorrow:\n\n")
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l.Text())
		b.WriteString("\n")
	}
	return b.String()
}
