package db

import (
	"time"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm/clause"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func ConnectDb(url string, log *utils.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  url,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Error),
	})

	if err != nil {
		return nil, err
	}

	log.Info("✅ Database connection successfully")

	log.Info("📦 Setting database connection pool...")
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// DefaultCoins are the withdrawable currencies seeded on migration.
var DefaultCoins = []models.CoinType{
	{Name: "Bitcoin", Symbol: models.BTC},
	{Name: "Ethereum", Symbol: models.ETH},
	{Name: "Tether", Symbol: models.USDT},
}

func Migrate(db *gorm.DB, trigger bool, log *utils.Logger) error {

	if trigger {
		log.Info("📦 Migrating database...")

		if err := db.AutoMigrate(models.All()...); err != nil {
			log.Errorf("✖ Failed to migrate database: %v", err)
			return err
		}
	}

	log.Info("📦 Seeding coin types...")
	coins := make([]models.CoinType, len(DefaultCoins))
	copy(coins, DefaultCoins)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&coins).Error
	if err != nil {
		log.Errorf("✖ Failed to seed coin types: %v", err)
		return err
	}

	log.Info("✅ Database is ready")
	return nil
}
