package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fi44er/tradewallet/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	kindWithdraw = "withdraw"
	kindDeposit  = "deposit"

	actionApprove = "approve"
	actionReject  = "reject"

	cancelAction = "admin_cancel_action"
)

var errBadCallback = errors.New("malformed callback data")

type reviewCallback struct {
	Kind   string
	Action string
	ID     uint
	Final  bool
}

// callbackData encodes a review button, e.g. admin_withdraw_approve:12 or
// admin_final_deposit_reject:7.
func callbackData(kind, action string, id uint, final bool) string {
	prefix := "admin_"
	if final {
		prefix = "admin_final_"
	}
	return fmt.Sprintf("%s%s_%s:%d", prefix, kind, action, id)
}

func parseCallback(data string) (reviewCallback, error) {
	var cb reviewCallback

	head, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return cb, errBadCallback
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		return cb, errBadCallback
	}
	cb.ID = uint(id)

	switch {
	case strings.HasPrefix(head, "admin_final_"):
		cb.Final = true
		head = strings.TrimPrefix(head, "admin_final_")
	case strings.HasPrefix(head, "admin_"):
		head = strings.TrimPrefix(head, "admin_")
	default:
		return cb, errBadCallback
	}

	kind, action, ok := strings.Cut(head, "_")
	if !ok {
		return cb, errBadCallback
	}
	if kind != kindWithdraw && kind != kindDeposit {
		return cb, errBadCallback
	}
	if action != actionApprove && action != actionReject {
		return cb, errBadCallback
	}
	cb.Kind, cb.Action = kind, action
	return cb, nil
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.withAdminCheck(func(ctx context.Context, update tgbotapi.Update) {
		chatID := update.Message.Chat.ID
		switch update.Message.Command() {
		case "start", "help":
			b.sendMessage(chatID, "New withdrawal requests and deposit slips will appear here with approve and reject buttons.", nil)
		default:
			b.sendMessage(chatID, "Unknown command. Use /help.", nil)
		}
	})(ctx, update)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil || !b.isAdmin(callback.From.ID) {
		b.answerCallback(callback.ID, "This action is only available to the administrator.")
		return
	}
	if callback.Message == nil || callback.Message.Chat == nil {
		b.answerCallback(callback.ID, "")
		return
	}
	chatID, messageID := callback.Message.Chat.ID, callback.Message.MessageID

	if callback.Data == cancelAction {
		b.edit(tgbotapi.NewEditMessageText(chatID, messageID, "❌ Action cancelled."))
		b.answerCallback(callback.ID, "")
		return
	}

	cb, err := parseCallback(callback.Data)
	if err != nil {
		b.logger.Errorf("Invalid callback data %q: %v", callback.Data, err)
		b.answerCallback(callback.ID, "Error: invalid button data.")
		return
	}

	if !cb.Final {
		confirm := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Yes, "+cb.Action, callbackData(cb.Kind, cb.Action, cb.ID, true)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelAction),
			),
		)
		text := fmt.Sprintf("Are you sure you want to %s %s #%d? This cannot be undone.", cb.Action, cb.Kind, cb.ID)
		b.edit(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, confirm))
		b.answerCallback(callback.ID, "")
		return
	}

	status, err := b.review(ctx, cb)
	if err != nil {
		b.logger.Errorf("Failed to %s %s %d: %v", cb.Action, cb.Kind, cb.ID, err)
		b.answerCallback(callback.ID, "❌ "+reviewFailure(err))
		return
	}

	b.edit(tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("✅ %s #%d is now %s.", cb.Kind, cb.ID, status)))
	b.answerCallback(callback.ID, "Done")
}

func (b *Bot) review(ctx context.Context, cb reviewCallback) (string, error) {
	if cb.Kind == kindDeposit {
		action := service.DepositApprove
		if cb.Action == actionReject {
			action = service.DepositReject
		}
		wallet, err := b.reviewer.ReviewDeposit(ctx, cb.ID, action)
		if err != nil {
			return "", err
		}
		return wallet.Status, nil
	}

	review := b.reviewer.ApproveWithdrawal
	if cb.Action == actionReject {
		review = b.reviewer.RejectWithdrawal
	}
	withdraw, err := review(ctx, cb.ID)
	if err != nil {
		return "", err
	}
	return withdraw.Status, nil
}

func reviewFailure(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyProcessed):
		return "already processed"
	case errors.Is(err, service.ErrNotFound):
		return "request not found"
	default:
		return "processing failed, try the admin panel"
	}
}

func (b *Bot) edit(c tgbotapi.Chattable) {
	if _, err := b.API.Send(c); err != nil {
		b.logger.Errorf("Failed to edit message: %v", err)
	}
}
