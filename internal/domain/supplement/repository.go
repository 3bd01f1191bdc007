package supplement

import "context"

// Repository defines the operations for persisting and retrieving supplements.
type Repository interface {
	Create(ctx context.Context, s *Supplement) error
	GetByID(ctx context.Context, id int64) (*Supplement, error)
	Update(ctx context.Context, s *Supplement) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*Supplement, error)
	// ListByUsers is the batch form of ListByUser, keyed by user ID.
	ListByUsers(ctx context.Context, userIDs []int64) (map[int64][]*Supplement, error)
}
