package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"

	"supplement_tracker/internal/domain/schedule"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	TelegramToken     string // Optional; the bot is disabled when empty
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	MailFrom          string
	MailRatePerSecond int
	DefaultTimezone   string
	CronSpecNotify    string // Daily cycle-change notification run
	LowSupplyDays     int    // 0 disables low-supply warnings
	PretendDate       time.Time
	LogLevel          string
	Environment       string
}

// MailEnabled reports whether an SMTP server is configured.
func (c *AppConfig) MailEnabled() bool {
	return c.SMTPHost != ""
}

// TelegramEnabled reports whether a bot token is configured.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort, err = intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.SMTPHost != "" && cfg.MailFrom == "" {
		return nil, fmt.Errorf("MAIL_FROM is not set (required when SMTP_HOST is set)")
	}

	cfg.MailRatePerSecond, err = intEnv("MAIL_RATE_PER_SECOND", 2)
	if err != nil {
		return nil, err
	}
	if cfg.MailRatePerSecond <= 0 {
		return nil, fmt.Errorf("invalid MAIL_RATE_PER_SECOND: must be positive")
	}

	cfg.DefaultTimezone = os.Getenv("DEFAULT_TIMEZONE")
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = schedule.DefaultTimezone
	}
	if _, err := schedule.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}

	cfg.CronSpecNotify = os.Getenv("CRON_SPEC_DAILY_NOTIFY")
	if cfg.CronSpecNotify == "" {
		cfg.CronSpecNotify = "0 18 * * *" // Default: 6 PM daily, the evening before a change
	}

	cfg.LowSupplyDays, err = intEnv("LOW_SUPPLY_DAYS", 0)
	if err != nil {
		return nil, err
	}
	if cfg.LowSupplyDays < 0 {
		return nil, fmt.Errorf("invalid LOW_SUPPLY_DAYS: must not be negative")
	}

	if s := os.Getenv("PRETEND_DATE"); s != "" {
		cfg.PretendDate, err = schedule.ParseDay(s)
		if err != nil {
			return nil, fmt.Errorf("invalid PRETEND_DATE: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

// Clock returns the clock the application should use: a fixed one when a
// pretend date is configured, the wall clock otherwise.
func (c *AppConfig) Clock() schedule.Clock {
	if !c.PretendDate.IsZero() {
		return schedule.FixedClock{Day: c.PretendDate}
	}
	return schedule.SystemClock{}
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
