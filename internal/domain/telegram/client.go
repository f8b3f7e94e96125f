package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to a Telegram chat. The feed channel posts through it,
// so nothing outside infra/telegram depends on the bot itself.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
