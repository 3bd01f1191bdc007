// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"supplement_tracker/internal/domain/mail"
	"supplement_tracker/internal/domain/notification"
	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/supplement"
	domainTelegram "supplement_tracker/internal/domain/telegram"
	"supplement_tracker/internal/domain/user"
	idb "supplement_tracker/internal/infra/database" // For repository sentinel errors
)

// NotificationService runs the daily cycle-change notification batch.
type NotificationService interface {
	// RunDaily evaluates every notifiable user's supplements for phase
	// changes tomorrow and sends one message per user and channel.
	RunDaily(ctx context.Context) (*notification.Run, error)
	// Preview computes the same digests as RunDaily without sending or recording anything.
	Preview(ctx context.Context) ([]Digest, error)
}

// Digest is everything one user would be told in a run.
type Digest struct {
	User  *user.User
	Today time.Time // the user's calendar date when the digest was computed
	Lines []notification.Line
}

// NotificationSettings tunes the batch.
type NotificationSettings struct {
	DefaultTimezone string
	LowSupplyDays   int // 0 disables supply warnings
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	userRepo       user.Repository
	supplementRepo supplement.Repository
	notifRepo      notification.Repository
	mailer         mail.Sender           // nil disables e-mail
	telegramClient domainTelegram.Client // nil disables Telegram
	clock          schedule.Clock
	settings       NotificationSettings
	logger         *logrus.Entry
}

func NewNotificationServiceImpl(
	ur user.Repository,
	sr supplement.Repository,
	nr notification.Repository,
	mailer mail.Sender,
	tc domainTelegram.Client,
	clock schedule.Clock,
	settings NotificationSettings,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	if settings.DefaultTimezone == "" {
		settings.DefaultTimezone = schedule.DefaultTimezone
	}
	return &NotificationServiceImpl{
		userRepo:       ur,
		supplementRepo: sr,
		notifRepo:      nr,
		mailer:         mailer,
		telegramClient: tc,
		clock:          clock,
		settings:       settings,
		logger:         logger,
	}
}

func (s *NotificationServiceImpl) timezoneFor(u *user.User) string {
	if u.Timezone != "" {
		return u.Timezone
	}
	return s.settings.DefaultTimezone
}

// Preview computes the digests for all notifiable users.
func (s *NotificationServiceImpl) Preview(ctx context.Context) ([]Digest, error) {
	users, err := s.userRepo.ListNotifiable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifiable users: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	byUser, err := s.supplementRepo.ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplements: %w", err)
	}

	digests := make([]Digest, 0, len(users))
	for _, u := range users {
		today, lines := s.linesFor(u, byUser[u.ID])
		if len(lines) == 0 {
			continue
		}
		digests = append(digests, Digest{User: u, Today: today, Lines: lines})
	}
	return digests, nil
}

// linesFor evaluates each supplement in the user's zone.
func (s *NotificationServiceImpl) linesFor(u *user.User, supplements []*supplement.Supplement) (time.Time, []notification.Line) {
	tz := s.timezoneFor(u)
	now := s.clock.Now(tz)
	today := schedule.DayIn(now, tz)

	var lines []notification.Line
	for _, sp := range supplements {
		sch := sp.Schedule(tz)
		if b, ok := schedule.ComputePhaseBoundary(sch, now); ok {
			lines = append(lines, notification.Line{
				SupplementID:   sp.ID,
				SupplementName: sp.Name,
				Kind:           notification.KindForBoundary(b.Type),
				EventDate:      b.Date,
			})
		}
		if s.settings.LowSupplyDays <= 0 {
			continue
		}
		if days, ok := schedule.DaysRemaining(sch, now); ok && days == s.settings.LowSupplyDays {
			lines = append(lines, notification.Line{
				SupplementID:   sp.ID,
				SupplementName: sp.Name,
				Kind:           notification.KindLowSupply,
				EventDate:      today,
				DaysLeft:       days,
			})
		}
	}
	return today, lines
}

// RunDaily executes one batch. Failures for a single user are logged and
// counted; only setup failures abort the run.
func (s *NotificationServiceImpl) RunDaily(ctx context.Context) (*notification.Run, error) {
	runDate := schedule.DayIn(s.clock.Now(s.settings.DefaultTimezone), s.settings.DefaultTimezone)
	run := notification.NewRun(runDate, time.Now())
	runLogger := s.logger.WithFields(logrus.Fields{
		"run_id":   run.ID.String(),
		"run_date": runDate.Format(schedule.DayLayout),
	})
	runLogger.Info("Starting daily notification run")

	if err := s.notifRepo.CreateRun(ctx, run); err != nil {
		runLogger.WithError(err).Error("Failed to create notification run")
		return nil, fmt.Errorf("failed to create notification run: %w", err)
	}

	digests, err := s.Preview(ctx)
	if err != nil {
		runLogger.WithError(err).Error("Failed to compute digests")
		s.finishAborted(ctx, run, err, runLogger)
		return run, err
	}
	if len(digests) == 0 {
		runLogger.Info("No cycle changes tomorrow for any user.")
	}

	for _, d := range digests {
		userLogger := runLogger.WithFields(logrus.Fields{"user_id": d.User.ID, "lines": len(d.Lines)})
		if s.mailer != nil && d.User.Email != "" {
			s.deliver(ctx, run, d, notification.ChannelEmail, userLogger)
		}
		if s.telegramClient != nil && d.User.TelegramChatID.Valid {
			s.deliver(ctx, run, d, notification.ChannelTelegram, userLogger)
		}
	}

	finished := time.Now()
	run.FinishedAt = &finished
	if err := s.notifRepo.FinishRun(ctx, run); err != nil {
		runLogger.WithError(err).Error("Failed to finish notification run")
		return run, fmt.Errorf("failed to finish notification run: %w", err)
	}
	runLogger.WithFields(logrus.Fields{
		"sent":    run.SentCount,
		"skipped": run.SkippedCount,
		"failed":  run.FailedCount,
	}).Info("Daily notification run finished")
	return run, nil
}

// finishAborted closes a run that stopped before any user was evaluated.
// The run keeps the reason; its original error is what the caller sees.
func (s *NotificationServiceImpl) finishAborted(ctx context.Context, run *notification.Run, cause error, logger *logrus.Entry) {
	finished := time.Now()
	run.FinishedAt = &finished
	run.Error = cause.Error()
	if err := s.notifRepo.FinishRun(ctx, run); err != nil {
		logger.WithError(err).Error("Failed to finish aborted notification run")
	}
}

// deliver sends the not-yet-delivered lines of d over one channel and
// records them.
func (s *NotificationServiceImpl) deliver(ctx context.Context, run *notification.Run, d Digest, channel notification.Channel, logger *logrus.Entry) {
	logger = logger.WithField("channel", channel)

	pending := make([]notification.Line, 0, len(d.Lines))
	for i, l := range d.Lines {
		done, err := s.notifRepo.HasDelivery(ctx, d.User.ID, l.SupplementID, l.Kind, l.EventDate, channel)
		if err != nil {
			logger.WithError(err).WithField("supplement_id", l.SupplementID).Error("Failed to check previous delivery")
			run.FailedCount += len(d.Lines) - i + len(pending)
			return
		}
		if done {
			run.SkippedCount++
			continue
		}
		pending = append(pending, l)
	}
	if len(pending) == 0 {
		logger.Debug("Everything already delivered on this channel")
		return
	}

	body := notification.ComposeBody(d.User.Name(), pending)
	var err error
	switch channel {
	case notification.ChannelEmail:
		err = s.mailer.Send(ctx, mail.Message{
			To:      d.User.Email,
			Subject: notification.Subject(d.Today.AddDate(0, 0, 1)),
			Body:    body,
		})
	case notification.ChannelTelegram:
		err = s.telegramClient.SendMessage(d.User.TelegramChatID.Int64, body, nil)
	default:
		err = fmt.Errorf("unknown channel %s", channel)
	}
	if errors.Is(err, domainTelegram.ErrChatUnreachable) {
		logger.WithError(err).Warn("Telegram chat unreachable, skipping")
		run.SkippedCount += len(pending)
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to send notification")
		run.FailedCount += len(pending)
		return
	}
	run.SentCount += len(pending)
	logger.Info("Notification sent")

	for _, l := range pending {
		rec := &notification.Delivery{
			RunID:        run.ID,
			UserID:       d.User.ID,
			SupplementID: l.SupplementID,
			Kind:         l.Kind,
			EventDate:    l.EventDate,
			Channel:      channel,
			SentAt:       time.Now(),
		}
		if err := s.notifRepo.RecordDelivery(ctx, rec); err != nil && !errors.Is(err, idb.ErrDeliveryExists) {
			logger.WithError(err).WithField("supplement_id", l.SupplementID).Error("Failed to record delivery")
		}
	}
}
