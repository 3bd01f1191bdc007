package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"supplement_tracker/internal/domain/notification"
	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/infra/logger"
)

var (
	runOnceDate   string
	runOnceTZ     string
	runOnceDryRun bool
)

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run the notification batch once and exit",
	Long: `run-once evaluates every notifiable user now (or on --date) and sends
the reminders that are due. With --dry-run the messages are printed
instead of sent and nothing is recorded.`,
	RunE: runOnce,
}

func init() {
	runOnceCmd.Flags().StringVar(&runOnceDate, "date", "", "pretend today is this date (YYYY-MM-DD)")
	runOnceCmd.Flags().StringVar(&runOnceTZ, "tz", "", "timezone for users without one (overrides DEFAULT_TIMEZONE)")
	runOnceCmd.Flags().BoolVar(&runOnceDryRun, "dry-run", false, "print messages instead of sending them")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runOnceDate != "" {
		if cfg.PretendDate, err = schedule.ParseDay(runOnceDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}
	if runOnceTZ != "" {
		if _, err := schedule.LoadLocation(runOnceTZ); err != nil {
			return fmt.Errorf("invalid --tz: %w", err)
		}
		cfg.DefaultTimezone = runOnceTZ
	}

	ctx := context.Background()
	svc, err := buildServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	if runOnceDryRun {
		digests, err := svc.notification.Preview(ctx)
		if err != nil {
			return err
		}
		if len(digests) == 0 {
			fmt.Fprintln(out, "Nothing to send.")
			return nil
		}
		for _, d := range digests {
			fmt.Fprintf(out, "To: %s\nSubject: %s\n\n%s\n", d.User.Email, notification.Subject(d.Today.AddDate(0, 0, 1)), notification.ComposeBody(d.User.Name(), d.Lines))
		}
		return nil
	}

	run, err := svc.notification.RunDaily(ctx)
	if err != nil {
		if run != nil {
			return fmt.Errorf("run %s aborted: %w", run.ID, err)
		}
		return err
	}
	logger.Component("main").WithFields(logrus.Fields{
		"run_id":  run.ID.String(),
		"sent":    run.SentCount,
		"skipped": run.SkippedCount,
		"failed":  run.FailedCount,
	}).Info("Notification run finished")
	fmt.Fprintf(out, "run %s: %d sent, %d skipped, %d failed (lines per channel)\n", run.ID, run.SentCount, run.SkippedCount, run.FailedCount)
	return nil
}
