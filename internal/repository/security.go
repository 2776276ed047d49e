package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/tradewallet/internal/models"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetAdminSecurity(ctx context.Context, adminID uint) (*models.AdminSecurity, error) {
	var security models.AdminSecurity
	err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).First(&security).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security settings of admin %d: %w", adminID, err)
	}
	return &security, nil
}

func (r *Repository) CreateAdminSecurity(ctx context.Context, security *models.AdminSecurity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(security).Error
}

func (r *Repository) SaveAdminSecurity(ctx context.Context, security *models.AdminSecurity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(security).Error
}

func (r *Repository) CreateIPLocation(ctx context.Context, location *models.UserIPLocation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(location).Error
}

// ListIPLocations returns recorded locations newest first. userID 0 lists
// every user.
func (r *Repository) ListIPLocations(ctx context.Context, userID uint) ([]models.UserIPLocation, error) {
	var locations []models.UserIPLocation
	db := r.db.WithContext(ctx).Preload("User")
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
	}
	if err := db.Order("created_at DESC, id DESC").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to list ip locations: %w", err)
	}
	return locations, nil
}
