package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(wallet).Error
}

func (r *Repository) LockWallet(ctx context.Context, id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&wallet, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock deposit #%d: %w", id, err)
	}
	return &wallet, nil
}

func (r *Repository) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(wallet).Error
}

func (r *Repository) ListWallets(ctx context.Context, filter service.ListFilter) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := filtered(r.db.WithContext(ctx), filter, true).
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return wallets, nil
}

func (r *Repository) GetCoinType(ctx context.Context, id uint) (*models.CoinType, error) {
	var coin models.CoinType
	err := r.db.WithContext(ctx).First(&coin, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coin %d: %w", id, err)
	}
	return &coin, nil
}

func (r *Repository) ListCoinTypes(ctx context.Context) ([]models.CoinType, error) {
	var coins []models.CoinType
	if err := r.db.WithContext(ctx).Order("id").Find(&coins).Error; err != nil {
		return nil, fmt.Errorf("failed to list coins: %w", err)
	}
	return coins, nil
}

func (r *Repository) GetDepositDetail(ctx context.Context, symbol models.Currency) (*models.DepositDetail, error) {
	var detail models.DepositDetail
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&detail).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit details for %s: %w", symbol, err)
	}
	return &detail, nil
}

func (r *Repository) SaveDepositDetail(ctx context.Context, detail *models.DepositDetail) error {
	return r.db.WithContext(ctx).Save(detail).Error
}
