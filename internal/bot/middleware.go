package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) withAdminCheck(handler func(context.Context, tgbotapi.Update)) func(context.Context, tgbotapi.Update) {
	return func(ctx context.Context, update tgbotapi.Update) {
		if update.Message.From == nil || !b.isAdmin(update.Message.From.ID) {
			b.logger.Warnf("Ignoring message from non-admin chat %d", update.Message.Chat.ID)
			b.sendMessage(update.Message.Chat.ID, "This bot only serves the administrator.", nil)
			return
		}
		handler(ctx, update)
	}
}
