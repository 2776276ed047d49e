package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

// UpdateUserColumns writes only the named columns, so concurrent updates of
// other flags on the same row are kept.
func (r *Repository) UpdateUserColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	tx := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(columns)
	if tx.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, service.ErrNotFound)
	}
	return nil
}

func (r *Repository) ToggleUserBlocked(ctx context.Context, id uint) error {
	return r.UpdateUserColumns(ctx, id, map[string]interface{}{"is_blocked": gorm.Expr("NOT is_blocked")})
}

// MarkUserVerified sets email_verified_at unless it is already set, and
// reports whether the row changed.
func (r *Repository) MarkUserVerified(ctx context.Context, id uint, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND email_verified_at IS NULL", id).
		Updates(map[string]interface{}{"email_verified_at": at})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to verify user %d: %w", id, tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// DeleteUser relies on the ON DELETE CASCADE constraints of the child tables.
func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	tx := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if tx.Error != nil {
		r.logger.Errorf("failed to delete user %d: %v", id, tx.Error)
		return fmt.Errorf("failed to delete user: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, service.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	db := r.db.WithContext(ctx).Preload("Balance")
	if role != "" {
		db = db.Where("role = ?", role)
	}
	if err := db.Order("id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *Repository) ListActiveUsers(ctx context.Context, since time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND last_activity >= ?", models.RoleUser, since).
		Order("last_activity DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	return users, nil
}

// ListIdleUsers returns accounts whose last activity is older than before.
func (r *Repository) ListIdleUsers(ctx context.Context, before time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("last_activity IS NOT NULL AND last_activity < ?", before).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list idle users: %w", err)
	}
	return users, nil
}

// ExpireActivity clears last_activity when it is still older than before.
// A request that touched the row in the meantime keeps it.
func (r *Repository) ExpireActivity(ctx context.Context, id uint, before time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND last_activity < ?", id, before).
		UpdateColumn("last_activity", nil)
	if tx.Error != nil {
		return false, fmt.Errorf("failed to expire activity of user %d: %w", id, tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (r *Repository) TouchUser(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_activity", at).Error
}

func (r *Repository) CreateDeletedUser(ctx context.Context, archived *models.DeletedUser) error {
	return r.db.WithContext(ctx).Create(archived).Error
}

func (r *Repository) GetDeletedUser(ctx context.Context, id uint) (*models.DeletedUser, error) {
	var archived models.DeletedUser
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&archived, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deleted user #%d: %w", id, err)
	}
	return &archived, nil
}

func (r *Repository) DeleteDeletedUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.DeletedUser{}, id).Error
}

func (r *Repository) ListDeletedUsers(ctx context.Context) ([]models.DeletedUser, error) {
	var archived []models.DeletedUser
	if err := r.db.WithContext(ctx).Order("deleted_at DESC").Find(&archived).Error; err != nil {
		return nil, fmt.Errorf("failed to list deleted users: %w", err)
	}
	return archived, nil
}
