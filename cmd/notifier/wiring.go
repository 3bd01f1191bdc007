package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"supplement_tracker/internal/app"
	"supplement_tracker/internal/domain/mail"
	"supplement_tracker/internal/domain/notification"
	domainTelegram "supplement_tracker/internal/domain/telegram"
	"supplement_tracker/internal/infra/config"
	idb "supplement_tracker/internal/infra/database"
	"supplement_tracker/internal/infra/logger"
	"supplement_tracker/internal/infra/mailer"
	"supplement_tracker/internal/infra/telegram"
)

// services is the wired application shared by the subcommands.
type services struct {
	cfg          *config.AppConfig
	db           *sql.DB
	bot          *telebot.Bot // nil when no token is configured
	users        *app.UserService
	supplements  *app.SupplementService
	summaries    *app.SummaryService
	notification *app.NotificationServiceImpl
	runs         notification.Repository
}

func (s *services) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// loadConfig reads configuration and initialises the global logger.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	logger.Log.WithFields(logrus.Fields{
		"environment":      cfg.Environment,
		"default_timezone": cfg.DefaultTimezone,
		"mail":             cfg.MailEnabled(),
		"telegram":         cfg.TelegramEnabled(),
	}).Info("Configuration loaded")
	return cfg, nil
}

func buildServices(ctx context.Context, cfg *config.AppConfig, poll bool) (*services, error) {
	log := logger.Component("main")

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if err := idb.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare database schema: %w", err)
	}

	// Initialize Repositories
	userRepo := idb.NewPostgresUserRepository(db)
	supplementRepo := idb.NewPostgresSupplementRepository(db, cfg.DefaultTimezone)
	notificationRepo := idb.NewPostgresNotificationRepository(db)

	var mailSender mail.Sender
	if cfg.MailEnabled() {
		mailSender = mailer.NewSMTPSender(mailer.Settings{
			Host:          cfg.SMTPHost,
			Port:          cfg.SMTPPort,
			Username:      cfg.SMTPUsername,
			Password:      cfg.SMTPPassword,
			From:          cfg.MailFrom,
			RatePerSecond: cfg.MailRatePerSecond,
			RetryMax:      2,
		}, logger.Component("mailer"))
	} else {
		log.Warn("SMTP_HOST not set, e-mail delivery disabled")
	}

	var bot *telebot.Bot
	var tgClient domainTelegram.Client
	if cfg.TelegramEnabled() {
		bot, err = newBot(cfg.TelegramToken, poll)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("could not create Telegram bot: %w", err)
		}
		tgClient = telegram.NewTelebotAdapter(bot)
	} else {
		log.Warn("TELEGRAM_TOKEN not set, Telegram delivery disabled")
	}

	clock := cfg.Clock()
	if !cfg.PretendDate.IsZero() {
		log.WithField("pretend_date", cfg.PretendDate.Format("2006-01-02")).Warn("Running with a pretend date")
	}

	return &services{
		cfg:         cfg,
		db:          db,
		bot:         bot,
		users:       app.NewUserService(userRepo, mailSender),
		supplements: app.NewSupplementService(supplementRepo, userRepo),
		summaries:   app.NewSummaryService(userRepo, supplementRepo, clock, cfg.DefaultTimezone),
		notification: app.NewNotificationServiceImpl(
			userRepo,
			supplementRepo,
			notificationRepo,
			mailSender,
			tgClient,
			clock,
			app.NotificationSettings{
				DefaultTimezone: cfg.DefaultTimezone,
				LowSupplyDays:   cfg.LowSupplyDays,
			},
			logger.Component("notification_service"),
		),
		runs: notificationRepo,
	}, nil
}

func newBot(token string, poll bool) (*telebot.Bot, error) {
	botLog := logger.Component("telebot")
	pref := telebot.Settings{
		Token: token,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLog.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID).WithField("text", c.Text())
			}
			entry.Error("Telegram handler failed")
		},
	}
	if poll {
		pref.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
	} else {
		pref.Offline = true
	}
	return telebot.NewBot(pref)
}
