// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"supplement_tracker/internal/app"
	idb "supplement_tracker/internal/infra/database" // For ErrUserNotFound
)

const notLinkedText = "This chat is not linked to an account yet. Send /link <your e-mail> first."

// Inline buttons under the summary message.
var (
	summaryMenu    = &telebot.ReplyMarkup{}
	btnRefresh     = summaryMenu.Data("Refresh", "summary_refresh")
	btnNotifyOn    = summaryMenu.Data("Notifications on", "notify_on")
	btnNotifyOff   = summaryMenu.Data("Notifications off", "notify_off")
	summaryButtons = summaryMenu.Row(btnRefresh, btnNotifyOn, btnNotifyOff)
)

func init() {
	summaryMenu.Inline(summaryButtons)
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	userService *app.UserService,
	summaryService *app.SummaryService,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("chat_id", chatID)
		logCtx.Info("Processing /start command")

		u, err := userService.GetByTelegramChat(ctx, chatID)
		if err == nil {
			logCtx.WithField("user_id", u.ID).Info("Chat belongs to a known user")
			return c.Send(fmt.Sprintf("Hi %s! I will tell you the evening before any supplement cycle changes. Use /summary to see your supplies.", u.Name()))
		} else if !errors.Is(err, idb.ErrUserNotFound) {
			logCtx.WithError(err).Error("Error looking up user for /start command")
			return c.Send("Something went wrong while checking your account. Please try again later.")
		}

		logCtx.Info("Chat is not linked")
		return c.Send("Hi! I send reminders about supplement on/off cycles. " + notLinkedText)
	})

	b.Handle("/help", func(c telebot.Context) error {
		startHelpLogger.WithField("command", "/help").WithField("chat_id", c.Chat().ID).Info("Processing /help command")
		return c.Send(helpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/summary", func(c telebot.Context) error {
		return sendSummary(ctx, c, userService, summaryService, baseLogger.WithField("command", "/summary"))
	})
}

func sendSummary(ctx context.Context, c telebot.Context, userService *app.UserService, summaryService *app.SummaryService, logger *logrus.Entry) error {
	chatID := c.Chat().ID
	logger = logger.WithField("chat_id", chatID)

	u, err := userService.GetByTelegramChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, idb.ErrUserNotFound) {
			return c.Send(notLinkedText)
		}
		logger.WithError(err).Error("Error looking up user for summary")
		return c.Send("Something went wrong while loading your account.")
	}

	cards, today, err := summaryService.Summaries(ctx, u.ID)
	if err != nil {
		logger.WithError(err).WithField("user_id", u.ID).Error("Failed to build summary")
		return c.Send("Something went wrong while building your summary.")
	}
	logger.WithFields(logrus.Fields{"user_id": u.ID, "cards": len(cards)}).Info("Summary sent")
	return c.Send(app.FormatSummary(today, cards), summaryMenu)
}

func helpText() string {
	return "Available commands:\n\n" +
		"`/link <email>` - get a code by e-mail, then `/link <code>` to connect this chat\n" +
		"`/unlink` - disconnect this chat from your account\n" +
		"`/summary` - remaining doses and days of supply\n" +
		"`/notify on|off` - turn the evening reminder on or off\n" +
		"`/timezone <Area/City>` - set the zone your days are counted in\n" +
		"`/help` - show this message"
}
