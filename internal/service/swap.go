package service

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/shopspring/decimal"
)

type SwapQuote struct {
	From       models.Currency `json:"from_crypto"`
	To         models.Currency `json:"to_crypto"`
	FromAmount decimal.Decimal `json:"from_amount"`
	ToAmount   decimal.Decimal `json:"to_amount"`
	Rate       decimal.Decimal `json:"rate"`
}

type SwapInput struct {
	From       models.Currency
	To         models.Currency
	FromAmount decimal.Decimal
	// ToAmount is what the client expects to receive. When set, a quote that
	// moved beyond the configured tolerance rejects the swap.
	ToAmount decimal.Decimal
}

type SwapResult struct {
	SwapQuote
	Balance *models.Balance `json:"balance"`
}

// Quote prices a swap without touching any balance.
func (s *Service) Quote(ctx context.Context, from, to models.Currency, fromAmount decimal.Decimal) (*SwapQuote, error) {
	if from == to {
		return nil, fmt.Errorf("%w: cannot swap the same cryptocurrency", ErrInvalidInput)
	}
	if !validAmount(fromAmount) {
		return nil, ErrInvalidAmount
	}

	rate, err := s.quotes.Rate(ctx, from, to)
	if err != nil {
		s.logger.Errorf("Quote %s->%s failed: %v", from, to, err)
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	toAmount := utils.RoundAmount(fromAmount.Mul(rate))
	if !toAmount.IsPositive() {
		return nil, fmt.Errorf("%w: amount too small to swap", ErrInvalidAmount)
	}

	return &SwapQuote{From: from, To: to, FromAmount: fromAmount, ToAmount: toAmount, Rate: rate}, nil
}

// Swap converts between two columns of the user's balance at the server's
// quoted rate.
func (s *Service) Swap(ctx context.Context, userID uint, in SwapInput) (*SwapResult, error) {
	quote, err := s.Quote(ctx, in.From, in.To, in.FromAmount)
	if err != nil {
		return nil, err
	}

	if in.ToAmount.IsPositive() && !withinTolerance(in.ToAmount, quote.ToAmount, s.config.SwapTolerance) {
		return nil, fmt.Errorf("%w: expected %s %s but the current quote is %s",
			ErrInvalidAmount, in.ToAmount, in.To, quote.ToAmount)
	}

	var balance *models.Balance
	err = s.repo.WithTransaction(ctx, func(tx Repository) error {
		b, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if !b.Debit(quote.From, quote.FromAmount) {
			return fmt.Errorf("%w: insufficient balance for this swap", ErrInsufficientFunds)
		}
		b.Credit(quote.To, quote.ToAmount)

		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("User %d swapped %s %s to %s %s", userID, quote.FromAmount, quote.From, quote.ToAmount, quote.To)
	s.publishBalance(ctx, balance)
	return &SwapResult{SwapQuote: *quote, Balance: balance}, nil
}

func withinTolerance(expected, quoted decimal.Decimal, tolerance float64) bool {
	diff := expected.Sub(quoted).Abs()
	return diff.LessThanOrEqual(quoted.Mul(decimal.NewFromFloat(tolerance)))
}
