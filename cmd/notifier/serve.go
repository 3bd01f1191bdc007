package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supplement_tracker/internal/infra/logger"
	"supplement_tracker/internal/infra/scheduler"
	"supplement_tracker/internal/infra/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily notification schedule and the Telegram bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mainLogger := logger.Component("main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := buildServices(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	notifScheduler := scheduler.NewNotificationScheduler(
		svc.notification,
		logger.Component("scheduler"),
		cfg.CronSpecNotify,
		cfg.DefaultTimezone,
	)
	if err := notifScheduler.Start(); err != nil {
		return err
	}

	if svc.bot != nil {
		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(ctx, svc.bot, svc.users, svc.summaries, botLogger)
		telegram.RegisterAccountHandlers(ctx, svc.bot, svc.users, svc.summaries, botLogger)
		mainLogger.Info("Telegram handlers registered.")

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go svc.bot.Start()
	}

	mainLogger.Info("Application setup complete. Scheduler is running.")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	if svc.bot != nil {
		svc.bot.Stop()
	}
	notifScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
	return nil
}
