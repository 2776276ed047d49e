package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/tradewallet/internal/events"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) notifyWithdrawal(_ context.Context, e events.Event) {
	ev, ok := e.(events.WithdrawalRequestedEvent)
	if !ok {
		return
	}
	b.logger.Infof("NOTIFY: withdrawal #%d of user %d", ev.WithdrawID, ev.UserID)
	b.sendMessage(b.config.AdminChatID, withdrawalText(ev), reviewKeyboard(kindWithdraw, ev.WithdrawID))
}

func (b *Bot) notifyDeposit(_ context.Context, e events.Event) {
	ev, ok := e.(events.DepositSubmittedEvent)
	if !ok {
		return
	}
	b.logger.Infof("NOTIFY: deposit #%d of user %d", ev.WalletID, ev.UserID)
	b.sendMessage(b.config.AdminChatID, depositText(ev), reviewKeyboard(kindDeposit, ev.WalletID))
}

func withdrawalText(ev events.WithdrawalRequestedEvent) string {
	return fmt.Sprintf(
		"🆕 New withdrawal request #%d\n\n"+
			"👤 *User:* `%s` (id %d)\n"+
			"💰 *Amount:* `%s` %s\n"+
			"🧾 *Destination:* `%s`",
		ev.WithdrawID,
		ev.UserEmail,
		ev.UserID,
		ev.Amount.String(),
		strings.ToUpper(ev.Symbol),
		ev.Destination,
	)
}

func depositText(ev events.DepositSubmittedEvent) string {
	return fmt.Sprintf(
		"✅ New deposit slip #%d\n\n"+
			"👤 *User:* `%s` (id %d)\n"+
			"💰 *Amount:* `%s` %s\n\n"+
			"Check the slip in the admin panel before approving.",
		ev.WalletID,
		ev.UserEmail,
		ev.UserID,
		ev.Amount.String(),
		strings.ToUpper(ev.Symbol),
	)
}

func reviewKeyboard(kind string, id uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackData(kind, actionApprove, id, false)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackData(kind, actionReject, id, false)),
		),
	)
}
