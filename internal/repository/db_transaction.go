package repository

import (
	"context"

	"github.com/Fi44er/tradewallet/internal/service"
	"gorm.io/gorm"
)

// WithTransaction runs fn against a repository bound to one transaction.
// fn's error rolls everything back; a nested call becomes a savepoint.
func (r *Repository) WithTransaction(ctx context.Context, fn func(tx service.Repository) error) error {
	r.logger.Debug("Starting transaction...")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
	if err != nil {
		r.logger.Debugf("Transaction rolled back: %v", err)
		return err
	}
	return nil
}
