// internal/infra/telegram/account_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"supplement_tracker/internal/app"
	idb "supplement_tracker/internal/infra/database"
)

// RegisterAccountHandlers wires the commands that change the linked account.
func RegisterAccountHandlers(
	ctx context.Context,
	b *telebot.Bot,
	userService *app.UserService,
	summaryService *app.SummaryService,
	baseLogger *logrus.Entry,
) {
	logger := baseLogger.WithField("handler_group", "account")

	b.Handle("/link", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithField("command", "/link").WithField("chat_id", chatID)

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /link <email>, then /link <code> with the code from the e-mail")
		}

		if !isLinkCode(args[0]) {
			err := userService.RequestTelegramLink(ctx, args[0], chatID)
			if err != nil && !errors.Is(err, idb.ErrUserNotFound) {
				logCtx.WithError(err).Warn("Failed to start chat link")
				return c.Send(linkErrorText(err))
			}
			// Same answer whether or not the address has an account.
			logCtx.Info("Link code requested")
			return c.Send(linkCodeSentText)
		}

		u, err := userService.ConfirmTelegramLink(ctx, chatID, args[0])
		if err != nil {
			logCtx.WithError(err).Warn("Failed to link chat")
			return c.Send(linkErrorText(err))
		}
		logCtx.WithField("user_id", u.ID).Info("Chat linked to user")
		return c.Send(fmt.Sprintf("Linked to %s. Reminders will arrive here too. Try /summary.", u.Email))
	})

	b.Handle("/unlink", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithField("command", "/unlink").WithField("chat_id", chatID)

		u, err := userService.GetByTelegramChat(ctx, chatID)
		if err != nil {
			return c.Send(lookupErrorText(err))
		}
		if _, err := userService.UnlinkTelegram(ctx, u.ID); err != nil {
			logCtx.WithError(err).Error("Failed to unlink chat")
			return c.Send("Could not unlink this chat. Please try again later.")
		}
		logCtx.WithField("user_id", u.ID).Info("Chat unlinked")
		return c.Send("This chat is no longer linked. Reminders will only arrive by e-mail.")
	})

	b.Handle("/notify", func(c telebot.Context) error {
		logCtx := logger.WithField("command", "/notify").WithField("chat_id", c.Chat().ID)

		enabled, ok := parseToggle(c.Args())
		if !ok {
			return c.Send("Usage: /notify on|off")
		}
		return setNotifications(ctx, c, userService, enabled, logCtx)
	})

	b.Handle("/timezone", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithField("command", "/timezone").WithField("chat_id", chatID)

		u, err := userService.GetByTelegramChat(ctx, chatID)
		if err != nil {
			return c.Send(lookupErrorText(err))
		}

		args := c.Args()
		if len(args) == 0 {
			current := u.Timezone
			if current == "" {
				current = "not set (the server default is used)"
			}
			return c.Send("Your timezone: " + current + "\nUsage: /timezone Europe/Berlin")
		}

		updated, err := userService.SetTimezone(ctx, u.ID, args[0])
		if err != nil {
			if errors.Is(err, app.ErrInvalidTimezone) {
				return c.Send(fmt.Sprintf("%q is not a known timezone. Use an IANA name like Europe/Berlin.", args[0]))
			}
			logCtx.WithError(err).Error("Failed to set timezone")
			return c.Send("Could not update your timezone. Please try again later.")
		}
		logCtx.WithFields(logrus.Fields{"user_id": u.ID, "timezone": updated.Timezone}).Info("Timezone updated")
		return c.Send("Timezone set to " + updated.Timezone + ".")
	})

	b.Handle(&btnNotifyOn, func(c telebot.Context) error {
		return respondAndToggle(ctx, c, userService, true, logger.WithField("callback", "notify_on"))
	})
	b.Handle(&btnNotifyOff, func(c telebot.Context) error {
		return respondAndToggle(ctx, c, userService, false, logger.WithField("callback", "notify_off"))
	})
	b.Handle(&btnRefresh, func(c telebot.Context) error {
		_ = c.Respond()
		return sendSummary(ctx, c, userService, summaryService, logger.WithField("callback", "summary_refresh"))
	})
}

func respondAndToggle(ctx context.Context, c telebot.Context, userService *app.UserService, enabled bool, logger *logrus.Entry) error {
	if err := c.Respond(); err != nil {
		logger.WithError(err).Warn("Failed to answer callback query")
	}
	return setNotifications(ctx, c, userService, enabled, logger.WithField("chat_id", c.Chat().ID))
}

func setNotifications(ctx context.Context, c telebot.Context, userService *app.UserService, enabled bool, logger *logrus.Entry) error {
	u, err := userService.GetByTelegramChat(ctx, c.Chat().ID)
	if err != nil {
		return c.Send(lookupErrorText(err))
	}
	if _, err := userService.SetNotifications(ctx, u.ID, enabled); err != nil {
		logger.WithError(err).Error("Failed to update notification setting")
		return c.Send("Could not update your reminder setting. Please try again later.")
	}
	logger.WithFields(logrus.Fields{"user_id": u.ID, "enabled": enabled}).Info("Notification setting changed")
	if enabled {
		return c.Send("Evening reminders are on.")
	}
	return c.Send("Evening reminders are off.")
}

func parseToggle(args []string) (bool, bool) {
	if len(args) != 1 {
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on", "yes", "1", "enable":
		return true, true
	case "off", "no", "0", "disable":
		return false, true
	}
	return false, false
}

const linkCodeSentText = "If that address has an account, a code is on its way. Send /link <code> here to finish."

// isLinkCode tells a six-digit code apart from an e-mail address.
func isLinkCode(arg string) bool {
	if len(arg) != 6 {
		return false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func linkErrorText(err error) string {
	switch {
	case errors.Is(err, app.ErrInvalidLinkCode):
		return "That code is wrong or has expired. Send /link <email> for a new one."
	case errors.Is(err, app.ErrAccountAlreadyLinked):
		return "That account is already linked to another chat. Send /unlink from that chat first."
	case errors.Is(err, app.ErrLinkUnavailable):
		return "Linking is not available right now because e-mail delivery is off."
	case errors.Is(err, idb.ErrDuplicateTelegramChat):
		return "This chat is already linked to another account."
	}
	return "Could not link this chat. Please try again later."
}

func lookupErrorText(err error) string {
	if errors.Is(err, idb.ErrUserNotFound) {
		return notLinkedText
	}
	return "Something went wrong while loading your account."
}
