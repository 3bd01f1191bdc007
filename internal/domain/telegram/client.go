package telegram

import (
	"errors"

	"gopkg.in/telebot.v3"
)

// ErrChatUnreachable means the chat can no longer receive messages: the
// user blocked the bot, deleted the account or the chat does not exist.
// Retrying will not help.
var ErrChatUnreachable = errors.New("telegram chat unreachable")

// Client sends messages to a Telegram chat.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
