package service

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/shopspring/decimal"
)

const (
	AdjustAdd      = "add"
	AdjustSubtract = "subtract"
)

// validAmount accepts positive amounts that fit the 8 decimal money columns.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(utils.RoundAmount(d))
}

// GetBalance returns the user's balance, or zeros when no row exists yet.
func (s *Service) GetBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return &models.Balance{UserID: userID}, nil
	}
	return balance, nil
}

// AdjustBalance adds to or subtracts from one balance column on an admin's
// behalf. Subtracting more than the column holds fails.
func (s *Service) AdjustBalance(ctx context.Context, userID uint, currency models.Currency, amount decimal.Decimal, action string) (*models.Balance, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	if action != AdjustAdd && action != AdjustSubtract {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	var balance *models.Balance
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		b, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return err
		}

		if action == AdjustAdd {
			b.Credit(currency, amount)
		} else if !b.Debit(currency, amount) {
			return fmt.Errorf("%w: cannot subtract %s from %s balance of %s",
				ErrInsufficientFunds, amount, currency, b.Get(currency))
		}

		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Admin %s %s %s for user %d", action, amount, currency, userID)
	s.publishBalance(ctx, balance)
	return balance, nil
}

func (s *Service) publishBalance(ctx context.Context, b *models.Balance) {
	s.publisher.Emit(ctx, events.BalanceUpdatedEvent{
		UserID:      b.UserID,
		UsdtBalance: b.UsdtBalance,
		BtcBalance:  b.BtcBalance,
		EthBalance:  b.EthBalance,
		Version:     b.Version,
	})
}
