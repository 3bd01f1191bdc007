package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	domainMail "supplement_tracker/internal/domain/mail"
	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/user"
	idb "supplement_tracker/internal/infra/database"
)

// Custom application-level errors for account management
var ErrInvalidEmail = errors.New("invalid email address")
var ErrInvalidTimezone = errors.New("invalid timezone")
var ErrUserAlreadyExists = errors.New("user with this email already exists")
var ErrAccountAlreadyLinked = errors.New("account is already linked to a telegram chat")
var ErrInvalidLinkCode = errors.New("invalid or expired link code")
var ErrLinkUnavailable = errors.New("telegram linking needs e-mail delivery")

type UserService struct {
	userRepo user.Repository
	mailer   domainMail.Sender // nil disables self-service Telegram linking

	mu      sync.Mutex
	pending map[int64]*linkRequest // by chat id
	now     func() time.Time
	newCode func() (string, error)
}

func NewUserService(ur user.Repository, mailer domainMail.Sender) *UserService {
	return &UserService{
		userRepo: ur,
		mailer:   mailer,
		pending:  map[int64]*linkRequest{},
		now:      time.Now,
		newCode:  randomLinkCode,
	}
}

// Register creates an account with notifications enabled.
func (s *UserService) Register(ctx context.Context, email, displayName, timezone string) (*user.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if timezone != "" {
		if _, err := schedule.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
		}
	}

	u := &user.User{
		Email:                addr.Address,
		DisplayName:          strings.TrimSpace(displayName),
		Timezone:             timezone,
		NotificationsEnabled: true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, idb.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}
	return u, nil
}

// LinkTelegram attaches a Telegram chat to the account with the given
// e-mail without a confirmation code. It is meant for operators; an
// account that already has a chat is refused.
func (s *UserService) LinkTelegram(ctx context.Context, email string, chatID int64) (*user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.attachChat(ctx, u, chatID)
}

// UnlinkTelegram detaches the chat from the account so it can be linked
// again, from another chat if need be.
func (s *UserService) UnlinkTelegram(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.TelegramChatID = sql.NullInt64{}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to unlink telegram chat: %w", err)
	}
	return u, nil
}

func (s *UserService) attachChat(ctx context.Context, u *user.User, chatID int64) (*user.User, error) {
	if u.TelegramChatID.Valid {
		if u.TelegramChatID.Int64 == chatID {
			return u, nil
		}
		return nil, ErrAccountAlreadyLinked
	}
	u.TelegramChatID = sql.NullInt64{Int64: chatID, Valid: true}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetTimezone changes the zone the user's days are counted in.
func (s *UserService) SetTimezone(ctx context.Context, userID int64, timezone string) (*user.User, error) {
	if _, err := schedule.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Timezone = strings.TrimSpace(timezone)
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update timezone: %w", err)
	}
	return u, nil
}

// SetNotifications turns the daily notification on or off.
func (s *UserService) SetNotifications(ctx context.Context, userID int64, enabled bool) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.NotificationsEnabled = enabled
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update notification setting: %w", err)
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *UserService) GetByTelegramChat(ctx context.Context, chatID int64) (*user.User, error) {
	return s.userRepo.GetByTelegramChatID(ctx, chatID)
}
