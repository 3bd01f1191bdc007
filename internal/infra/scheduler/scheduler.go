package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"supplement_tracker/internal/app" // For NotificationService interface
	"supplement_tracker/internal/domain/schedule"
)

// runTimeout bounds one daily batch.
const runTimeout = 10 * time.Minute

type NotificationScheduler struct {
	cronEngine     *cron.Cron
	notifService   app.NotificationService // Using the interface
	logger         *logrus.Entry
	cronSpecNotify string
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	logger *logrus.Entry,
	cronSpecNotify string, // e.g., "0 18 * * *" (6 PM daily)
	timezone string, // zone the cron spec is read in
) *NotificationScheduler {
	loc, err := schedule.LoadLocation(timezone)
	if err != nil {
		logger.WithError(err).Warn("Scheduler timezone invalid, using server local time")
		loc = time.Local
	}
	return &NotificationScheduler{
		cronEngine:     cron.New(cron.WithLocation(loc)),
		notifService:   notifService,
		logger:         logger,
		cronSpecNotify: cronSpecNotify,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecNotify, func() {
		s.logger.Info("Cron job triggered for daily cycle notifications.")
		s.executeNotificationRun()
	})
	if err != nil {
		return fmt.Errorf("could not add daily notification cron job %q: %w", s.cronSpecNotify, err)
	}

	s.cronEngine.Start()
	for _, e := range s.cronEngine.Entries() {
		s.logger.WithField("next_run", e.Next.Format(time.RFC3339)).Info("Notification scheduler started with jobs.")
	}
	return nil
}

// executeNotificationRun runs one batch with a bounded context. Errors are
// logged; the next trigger simply tries again.
func (s *NotificationScheduler) executeNotificationRun() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	run, err := s.notifService.RunDaily(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during daily notification run")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":  run.ID.String(),
		"sent":    run.SentCount,
		"skipped": run.SkippedCount,
		"failed":  run.FailedCount,
	}).Info("Daily notification run completed")
}

func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Notification scheduler gracefully stopped.")
}
