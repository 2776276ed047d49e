package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Fi44er/tradewallet/config"
	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/Fi44er/tradewallet/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminChat int64 = 4242

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	answered []tgbotapi.CallbackConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type fakeReviewer struct {
	calls []string
	err   error
}

func (r *fakeReviewer) ApproveWithdrawal(_ context.Context, id uint) (*models.Withdraw, error) {
	r.calls = append(r.calls, fmt.Sprintf("withdraw approve %d", id))
	if r.err != nil {
		return nil, r.err
	}
	return &models.Withdraw{ID: id, Status: models.WithdrawApproved}, nil
}

func (r *fakeReviewer) RejectWithdrawal(_ context.Context, id uint) (*models.Withdraw, error) {
	r.calls = append(r.calls, fmt.Sprintf("withdraw reject %d", id))
	if r.err != nil {
		return nil, r.err
	}
	return &models.Withdraw{ID: id, Status: models.WithdrawRejected}, nil
}

func (r *fakeReviewer) ReviewDeposit(_ context.Context, id uint, action string) (*models.Wallet, error) {
	r.calls = append(r.calls, fmt.Sprintf("deposit %s %d", action, id))
	if r.err != nil {
		return nil, r.err
	}
	status := models.DepositApproved
	if action == service.DepositReject {
		status = models.DepositRejected
	}
	return &models.Wallet{ID: id, Status: status}, nil
}

func newTestBot() (*Bot, *fakeAPI, *fakeReviewer) {
	api := &fakeAPI{}
	reviewer := &fakeReviewer{}
	return NewBot(api, reviewer, utils.NopLogger(), &config.Config{AdminChatID: adminChat}), api, reviewer
}

func callback(from int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: adminChat}},
		Data:    data,
	}
}

func TestParseCallback(t *testing.T) {
	cb, err := parseCallback("admin_withdraw_approve:12")
	require.NoError(t, err)
	assert.Equal(t, reviewCallback{Kind: kindWithdraw, Action: actionApprove, ID: 12}, cb)

	cb, err = parseCallback(callbackData(kindDeposit, actionReject, 7, true))
	require.NoError(t, err)
	assert.Equal(t, reviewCallback{Kind: kindDeposit, Action: actionReject, ID: 7, Final: true}, cb)

	for _, data := range []string{
		"",
		"admin_withdraw_approve",
		"admin_withdraw_approve:0",
		"admin_withdraw_approve:abc",
		"admin_trade_approve:3",
		"admin_deposit_delete:3",
		"contact_user:3",
	} {
		_, err := parseCallback(data)
		assert.ErrorIs(t, err, errBadCallback, data)
	}
}

func TestNotifyWithdrawal(t *testing.T) {
	b, api, _ := newTestBot()

	b.notifyWithdrawal(context.Background(), events.WithdrawalRequestedEvent{
		WithdrawID:  5,
		UserID:      3,
		UserEmail:   "alice@example.com",
		Symbol:      "btc",
		Amount:      decimal.RequireFromString("0.25"),
		Destination: "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2",
	})

	msg, ok := api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, adminChat, msg.ChatID)
	assert.Contains(t, msg.Text, "#5")
	assert.Contains(t, msg.Text, "0.25")
	assert.Contains(t, msg.Text, "BTC")
	assert.Contains(t, msg.Text, "alice@example.com")

	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 1)
	require.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Equal(t, "admin_withdraw_approve:5", *keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "admin_withdraw_reject:5", *keyboard.InlineKeyboard[0][1].CallbackData)
}

func TestNotifyDepositIgnoresOtherEvents(t *testing.T) {
	b, api, _ := newTestBot()

	b.notifyDeposit(context.Background(), events.UserOnlineEvent{UserID: 1, IsOnline: true})
	assert.Nil(t, api.last())

	b.notifyDeposit(context.Background(), events.DepositSubmittedEvent{
		WalletID: 8, UserID: 2, UserEmail: "bob@example.com", Symbol: "eth", Amount: decimal.NewFromInt(2),
	})
	msg, ok := api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "ETH")
	assert.Contains(t, msg.Text, "#8")
}

func TestCallbackRequiresAdmin(t *testing.T) {
	b, api, reviewer := newTestBot()

	b.handleCallbackQuery(context.Background(), callback(1, "admin_final_withdraw_approve:5"))

	assert.Empty(t, reviewer.calls)
	require.Len(t, api.answered, 1)
	assert.Contains(t, api.answered[0].Text, "administrator")
}

func TestCallbackTwoStepReview(t *testing.T) {
	ctx := context.Background()
	b, api, reviewer := newTestBot()

	b.handleCallbackQuery(ctx, callback(adminChat, "admin_withdraw_reject:5"))
	assert.Empty(t, reviewer.calls)

	confirm, ok := api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 99, confirm.MessageID)
	require.NotNil(t, confirm.ReplyMarkup)
	assert.Equal(t, "admin_final_withdraw_reject:5", *confirm.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cancelAction, *confirm.ReplyMarkup.InlineKeyboard[0][1].CallbackData)

	b.handleCallbackQuery(ctx, callback(adminChat, "admin_final_withdraw_reject:5"))
	assert.Equal(t, []string{"withdraw reject 5"}, reviewer.calls)
	done, ok := api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, done.Text, models.WithdrawRejected)

	b.handleCallbackQuery(ctx, callback(adminChat, "admin_final_deposit_approve:8"))
	assert.Equal(t, "deposit approve 8", reviewer.calls[1])
}

func TestCallbackReviewFailure(t *testing.T) {
	b, api, reviewer := newTestBot()
	reviewer.err = fmt.Errorf("wrap: %w", service.ErrAlreadyProcessed)

	b.handleCallbackQuery(context.Background(), callback(adminChat, "admin_final_deposit_reject:8"))

	require.NotEmpty(t, api.answered)
	assert.Contains(t, api.answered[len(api.answered)-1].Text, "already processed")
	assert.Empty(t, api.sent)
}

func TestCallbackCancel(t *testing.T) {
	b, api, reviewer := newTestBot()

	b.handleCallbackQuery(context.Background(), callback(adminChat, cancelAction))

	assert.Empty(t, reviewer.calls)
	edit, ok := api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "cancelled")
}

func TestStartStopsWithContext(t *testing.T) {
	b, _, _ := newTestBot()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		b.Start(ctx)
		close(done)
	}()
	cancel()
	<-done
}
