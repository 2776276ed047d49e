package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &setting, nil
}

func (r *Repository) SaveSetting(ctx context.Context, setting *models.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
}

func (r *Repository) ListAdminMessages(ctx context.Context) ([]models.AdminMessage, error) {
	var messages []models.AdminMessage
	if err := r.db.WithContext(ctx).Order("id").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list admin messages: %w", err)
	}
	return messages, nil
}

func (r *Repository) ReplaceAdminMessages(ctx context.Context, messages []models.AdminMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.AdminMessage{}).Error; err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		return tx.Create(&messages).Error
	})
}
