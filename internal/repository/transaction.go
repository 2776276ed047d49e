package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(trade).Error
}

// ListTrades returns the newest trades first. userID 0 lists everyone's.
func (r *Repository) ListTrades(ctx context.Context, userID uint) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.db.WithContext(ctx)
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
	}
	if err := db.Order("created_at DESC, id DESC").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (r *Repository) CreateInvestment(ctx context.Context, investment *models.Investment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(investment).Error
}

func (r *Repository) LockInvestment(ctx context.Context, id uint) (*models.Investment, error) {
	var investment models.Investment
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&investment, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock investment #%d: %w", id, err)
	}
	return &investment, nil
}

func (r *Repository) UpdateInvestment(ctx context.Context, investment *models.Investment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(investment).Error
}

func (r *Repository) ListInvestments(ctx context.Context, filter service.ListFilter) ([]models.Investment, error) {
	var investments []models.Investment
	err := filtered(r.db.WithContext(ctx), filter, false).
		Order("created_at DESC, id DESC").
		Find(&investments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return investments, nil
}
