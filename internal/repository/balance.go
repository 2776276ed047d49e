package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"gorm.io/gorm/clause"
)

// LockBalance must run inside WithTransaction for the lock to mean anything.
func (r *Repository) LockBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Balance{UserID: userID}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create balance for user %d: %w", userID, err)
	}

	var balance models.Balance
	if err := db.Clauses(forUpdate).Where("user_id = ?", userID).First(&balance).Error; err != nil {
		return nil, fmt.Errorf("failed to lock balance for user %d: %w", userID, err)
	}
	return &balance, nil
}

func (r *Repository) GetBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return &balance, nil
}

func (r *Repository) SaveBalance(ctx context.Context, balance *models.Balance) error {
	balance.Version++
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(balance).Error; err != nil {
		r.logger.Errorf("failed to save balance for user %d: %v", balance.UserID, err)
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}
