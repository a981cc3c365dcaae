package service

import (
	"context"

	"github.com/ds124wfegd/hotel-booking/pkg/telegram"
)

// TelegramNotifier sends operator notifications to a single chat.
type TelegramNotifier struct {
	bot    *telegram.Bot
	chatID string
}

func NewTelegramNotifier(bot *telegram.Bot, chatID string) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if n.bot == nil || n.chatID == "" {
		return nil
	}
	return n.bot.SendMessage(ctx, n.chatID, text)
}
