package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/shopspring/decimal"
)

type TradeInput struct {
	Symbol       string
	Direction    string
	DeliveryTime int
	TradeAmount  decimal.Decimal
	TradeProfit  decimal.Decimal
}

func (in TradeInput) validate() error {
	if strings.TrimSpace(in.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	if in.Direction != models.DirectionUp && in.Direction != models.DirectionFall {
		return fmt.Errorf("%w: direction must be up or fall", ErrInvalidInput)
	}
	if in.DeliveryTime < 0 {
		return fmt.Errorf("%w: delivery time must not be negative", ErrInvalidInput)
	}
	if !validAmount(in.TradeAmount) {
		return fmt.Errorf("%w: trade amount must be positive", ErrInvalidAmount)
	}
	if in.TradeProfit.IsNegative() || !in.TradeProfit.Equal(utils.RoundAmount(in.TradeProfit)) {
		return fmt.Errorf("%w: trade profit must not be negative", ErrInvalidAmount)
	}
	return nil
}

// PlaceTrade takes the stake from the USDT balance and settles the trade in
// the same transaction. delivery_time is recorded only.
func (s *Service) PlaceTrade(ctx context.Context, userID uint, in TradeInput) (*models.Trade, *models.Balance, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	var (
		trade   *models.Trade
		balance *models.Balance
	)
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		b, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return err
		}

		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUnauthorized
		}

		if !b.Debit(models.USDT, in.TradeAmount) {
			return fmt.Errorf("%w: usdt balance %s is below stake %s",
				ErrInsufficientFunds, b.UsdtBalance, in.TradeAmount)
		}

		outcome := SettleTrade(in.TradeAmount, in.TradeProfit, LossPolicyFor(user))
		b.Credit(models.USDT, outcome.Credit)

		t := &models.Trade{
			UserID:       userID,
			Symbol:       strings.ToUpper(strings.TrimSpace(in.Symbol)),
			Direction:    in.Direction,
			DeliveryTime: in.DeliveryTime,
			TradeAmount:  in.TradeAmount,
			TradeProfit:  in.TradeProfit,
			ProfitEarned: outcome.ProfitEarned,
			Status:       outcome.Status,
		}
		if err := tx.CreateTrade(ctx, t); err != nil {
			return err
		}
		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}

		trade, balance = t, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Infof("Trade #%d for user %d settled as %s", trade.ID, userID, trade.Status)
	s.publishBalance(ctx, balance)
	return trade, balance, nil
}

func (s *Service) TradeHistory(ctx context.Context, userID uint) ([]models.Trade, error) {
	trades, err := s.repo.ListTrades(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (s *Service) LossStatus(ctx context.Context, userID uint) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUnauthorized
	}
	return user.LossApplied, nil
}

// SetLossApplied switches forced losses on or off for one user.
func (s *Service) SetLossApplied(ctx context.Context, userID uint, applied bool) (*models.User, error) {
	err := s.repo.UpdateUserColumns(ctx, userID, map[string]interface{}{"loss_applied": applied})
	if err != nil {
		return nil, fmt.Errorf("failed to update loss flag: %w", err)
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Loss flag for user %d set to %t", userID, applied)
	return user, nil
}
