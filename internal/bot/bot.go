package bot

import (
	"context"

	"github.com/Fi44er/tradewallet/config"
	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the bot talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Reviewer settles pending requests on behalf of the admin.
type Reviewer interface {
	ApproveWithdrawal(ctx context.Context, id uint) (*models.Withdraw, error)
	RejectWithdrawal(ctx context.Context, id uint) (*models.Withdraw, error)
	ReviewDeposit(ctx context.Context, walletID uint, action string) (*models.Wallet, error)
}

// Bot forwards new withdrawal and deposit requests to the admin chat and
// lets the admin approve or reject them from there.
type Bot struct {
	API      API
	reviewer Reviewer
	logger   *utils.Logger
	config   *config.Config
}

func NewBot(
	api API,
	reviewer Reviewer,
	logger *utils.Logger,
	config *config.Config,
) *Bot {
	return &Bot{
		API:      api,
		reviewer: reviewer,
		logger:   logger,
		config:   config,
	}
}

func (b *Bot) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeWithdrawalRequested, b.notifyWithdrawal)
	bus.Subscribe(events.EventTypeDepositSubmitted, b.notifyDeposit)
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("Starting bot...")
	updates := b.API.GetUpdatesChan(tgbotapi.NewUpdate(0))
	defer b.API.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.logger.Debugf("Received update: %+v", update)
			if update.CallbackQuery != nil {
				b.handleCallbackQuery(ctx, update.CallbackQuery)
				continue
			}
			if update.Message != nil {
				b.HandleUpdate(ctx, update)
			}
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.API.Send(msg); err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
	}
}

func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.API.Request(callback); err != nil {
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.config.AdminChatID != 0 && userID == b.config.AdminChatID
}
