package repository

import (
	"errors"

	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/Fi44er/tradewallet/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ service.Repository = (*Repository)(nil)

// Repository is the gorm implementation of service.Repository. Lookups
// return (nil, nil) when the row does not exist.
type Repository struct {
	db     *gorm.DB
	logger *utils.Logger
}

func NewRepository(db *gorm.DB, logger *utils.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// filtered narrows a query by the non-zero fields of filter. Tables without
// a symbol column pass withSymbol=false.
func filtered(db *gorm.DB, filter service.ListFilter, withSymbol bool) *gorm.DB {
	if filter.UserID != 0 {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if withSymbol && filter.Symbol != "" {
		db = db.Where("symbol = ?", filter.Symbol)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	return db
}
