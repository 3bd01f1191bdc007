// internal/infra/telegram/client.go
package telegram

import (
	"errors"
	"fmt"

	"gopkg.in/telebot.v3"

	domainTelegram "supplement_tracker/internal/domain/telegram"
)

// unreachableErrors are API answers after which a chat will never accept
// messages from the bot again.
var unreachableErrors = []error{
	telebot.ErrBlockedByUser,
	telebot.ErrUserIsDeactivated,
	telebot.ErrChatNotFound,
	telebot.ErrNotStartedByUser,
}

// TelebotAdapter implements domain telegram.Client on top of *telebot.Bot.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends plain text to a chat. Link previews are off unless the
// caller passes its own options.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{DisableWebPagePreview: true}
	}

	_, err := tba.bot.Send(&telebot.Chat{ID: chatID}, text, options)
	return classifySendError(err)
}

// classifySendError folds permanent delivery failures into
// domainTelegram.ErrChatUnreachable and leaves others as they are.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range unreachableErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %v", domainTelegram.ErrChatUnreachable, err)
		}
	}
	return err
}
