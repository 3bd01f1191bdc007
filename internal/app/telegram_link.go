package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	domainMail "supplement_tracker/internal/domain/mail"
	"supplement_tracker/internal/domain/user"
)

const (
	linkCodeTTL         = 15 * time.Minute
	linkCodeMaxAttempts = 5
)

// linkRequest is a pending Telegram link waiting for its e-mailed code.
type linkRequest struct {
	userID   int64
	code     string
	expires  time.Time
	attempts int
}

func randomLinkCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestTelegramLink mails a one-time code to the account owning email.
// The chat is linked only once ConfirmTelegramLink sees that code, so
// knowing an address is not enough to read someone's supplements.
func (s *UserService) RequestTelegramLink(ctx context.Context, email string, chatID int64) error {
	if s.mailer == nil {
		return ErrLinkUnavailable
	}
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.TelegramChatID.Valid && u.TelegramChatID.Int64 != chatID {
		return ErrAccountAlreadyLinked
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("failed to generate link code: %w", err)
	}

	s.mu.Lock()
	s.pruneLocked()
	s.pending[chatID] = &linkRequest{userID: u.ID, code: code, expires: s.now().Add(linkCodeTTL)}
	s.mu.Unlock()

	err = s.mailer.Send(ctx, domainMail.Message{
		To:      u.Email,
		Subject: "Your Telegram link code",
		Body: fmt.Sprintf("Hi %s,\n\nSend this to the bot to link your Telegram chat:\n\n/link %s\n\nThe code expires in %d minutes. If you did not ask for it, ignore this e-mail.\n",
			u.Name(), code, int(linkCodeTTL.Minutes())),
	})
	if err != nil {
		s.mu.Lock()
		delete(s.pending, chatID)
		s.mu.Unlock()
		return fmt.Errorf("failed to send link code: %w", err)
	}
	return nil
}

// ConfirmTelegramLink links chatID to the account its pending request was
// made for when code matches. Too many wrong codes drop the request.
func (s *UserService) ConfirmTelegramLink(ctx context.Context, chatID int64, code string) (*user.User, error) {
	s.mu.Lock()
	req, ok := s.pending[chatID]
	if !ok || s.now().After(req.expires) {
		delete(s.pending, chatID)
		s.mu.Unlock()
		return nil, ErrInvalidLinkCode
	}
	if subtle.ConstantTimeCompare([]byte(req.code), []byte(code)) != 1 {
		req.attempts++
		if req.attempts >= linkCodeMaxAttempts {
			delete(s.pending, chatID)
		}
		s.mu.Unlock()
		return nil, ErrInvalidLinkCode
	}
	delete(s.pending, chatID)
	userID := req.userID
	s.mu.Unlock()

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachChat(ctx, u, chatID)
}

func (s *UserService) pruneLocked() {
	now := s.now()
	for chatID, req := range s.pending {
		if now.After(req.expires) {
			delete(s.pending, chatID)
		}
	}
}
