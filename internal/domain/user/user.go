package user

import (
	"database/sql"
	"time"
)

// User is an account that owns supplements and receives notifications.
type User struct {
	ID                   int64
	Email                string
	DisplayName          string
	Timezone             string // IANA name; empty means the default zone
	NotificationsEnabled bool
	TelegramChatID       sql.NullInt64 // set once the user links a chat with /link
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Name returns the display name, or the e-mail when no name is set.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
