package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return db, nil
}

// CoreModels are the tables every deployment needs, in dependency order.
func CoreModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.SystemLog{},
	}
}

// Migrate runs AutoMigrate for the core tables followed by modelList.
func Migrate(db *gorm.DB, modelList ...interface{}) error {
	if err := db.AutoMigrate(CoreModels()...); err != nil {
		return fmt.Errorf("migrate core models: %w", err)
	}
	if len(modelList) == 0 {
		return nil
	}
	if err := db.AutoMigrate(modelList...); err != nil {
		return fmt.Errorf("migrate module models: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
