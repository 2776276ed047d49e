package service

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/shopspring/decimal"
)

// Invest locks amount of USDT into a fixed-term plan.
func (s *Service) Invest(ctx context.Context, userID uint, planName string, amount decimal.Decimal) (*models.Investment, error) {
	plan, ok := LookupPlan(planName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidAmount, planName)
	}
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(plan.Minimum) {
		return nil, fmt.Errorf("%w: minimum investment for %s plan is %s USDT",
			ErrInvalidAmount, plan.Name, plan.Minimum)
	}

	var investment *models.Investment
	var balance *models.Balance
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		b, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if !b.Debit(models.USDT, amount) {
			return fmt.Errorf("%w: insufficient USDT balance to start this investment", ErrInsufficientFunds)
		}

		startsAt := s.now()
		inv := &models.Investment{
			UserID:   userID,
			Plan:     plan.Name,
			Amount:   amount,
			Profit:   plan.Profit(amount),
			StartsAt: startsAt,
			EndsAt:   startsAt.AddDate(0, 0, plan.Days),
			Status:   models.InvestmentActive,
		}
		if err := tx.CreateInvestment(ctx, inv); err != nil {
			return err
		}
		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}

		investment, balance = inv, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Investment #%d (%s, %s USDT) opened for user %d", investment.ID, plan.Name, amount, userID)
	s.publishBalance(ctx, balance)
	return investment, nil
}

// ListInvestments settles every investment of the user that has reached its
// end date and then returns all of them.
func (s *Service) ListInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	if err := s.MatureInvestments(ctx, userID); err != nil {
		return nil, err
	}

	investments, err := s.repo.ListInvestments(ctx, ListFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return investments, nil
}

// MatureInvestments pays out due investments of one user, or of everyone
// when userID is zero.
func (s *Service) MatureInvestments(ctx context.Context, userID uint) error {
	active, err := s.repo.ListInvestments(ctx, ListFilter{UserID: userID, Status: models.InvestmentActive})
	if err != nil {
		return fmt.Errorf("failed to list active investments: %w", err)
	}

	now := s.now()
	for i := range active {
		if !active[i].Due(now) {
			continue
		}
		if _, err := s.matureInvestment(ctx, active[i].ID); err != nil {
			return fmt.Errorf("failed to complete investment #%d: %w", active[i].ID, err)
		}
	}
	return nil
}

// matureInvestment credits principal and profit exactly once. The status is
// re-checked under the row lock so a concurrent listing cannot pay twice.
func (s *Service) matureInvestment(ctx context.Context, id uint) (bool, error) {
	var balance *models.Balance
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		inv, err := tx.LockInvestment(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrNotFound
		}
		if !inv.Due(s.now()) {
			return nil
		}

		b, err := tx.LockBalance(ctx, inv.UserID)
		if err != nil {
			return err
		}
		b.Credit(models.USDT, inv.Amount.Add(inv.Profit))

		inv.Status = models.InvestmentCompleted
		if err := tx.UpdateInvestment(ctx, inv); err != nil {
			return err
		}
		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil || balance == nil {
		return false, err
	}

	s.logger.Infof("Investment #%d completed for user %d", id, balance.UserID)
	s.publishBalance(ctx, balance)
	return true, nil
}

// InvestmentHistory is the admin view over one user's investments, or all
// when userID is zero.
func (s *Service) InvestmentHistory(ctx context.Context, userID uint) ([]models.Investment, error) {
	if err := s.MatureInvestments(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListInvestments(ctx, ListFilter{UserID: userID})
}
