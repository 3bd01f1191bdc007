package user

import (
	"context"
)

// Repository defines the operations for persisting and retrieving User entities.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*User, error)
	Update(ctx context.Context, u *User) error // Email is immutable; everything else is written
	ListNotifiable(ctx context.Context) ([]*User, error)
}
