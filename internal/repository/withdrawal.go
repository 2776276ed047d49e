package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateWithdraw(ctx context.Context, withdraw *models.Withdraw) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(withdraw).Error
}

func (r *Repository) LockWithdraw(ctx context.Context, id uint) (*models.Withdraw, error) {
	var withdraw models.Withdraw
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&withdraw, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Errorf("failed to lock withdrawal #%d: %v", id, err)
		return nil, fmt.Errorf("failed to lock withdrawal #%d: %w", id, err)
	}
	return &withdraw, nil
}

func (r *Repository) UpdateWithdraw(ctx context.Context, withdraw *models.Withdraw) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(withdraw).Error; err != nil {
		return fmt.Errorf("failed to update withdrawal #%d: %w", withdraw.ID, err)
	}
	return nil
}

// ListWithdraws returns the newest requests first with user and coin loaded.
func (r *Repository) ListWithdraws(ctx context.Context, filter service.ListFilter) ([]models.Withdraw, error) {
	var withdraws []models.Withdraw
	err := filtered(r.db.WithContext(ctx), filter, true).
		Preload("User").
		Preload("Coin").
		Order("created_at DESC, id DESC").
		Find(&withdraws).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdraws, nil
}
