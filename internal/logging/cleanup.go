package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"gorm.io/gorm"
)

// TokenSweeper removes refresh tokens that are past their expiry.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type CleanupConfig struct {
	LogRetentionDays   int
	TokenSweepInterval time.Duration
}

// StartCleanup runs the system log retention job once a day and the
// refresh token sweep every TokenSweepInterval until ctx is cancelled.
// A nil db disables log retention.
func StartCleanup(ctx context.Context, db *gorm.DB, sweeper TokenSweeper, cfg CleanupConfig) {
	if db != nil && cfg.LogRetentionDays > 0 {
		go every(ctx, 24*time.Hour, func() { purgeLogs(ctx, db, cfg.LogRetentionDays) })
	}
	if sweeper != nil && cfg.TokenSweepInterval > 0 {
		go every(ctx, cfg.TokenSweepInterval, func() { sweepTokens(ctx, sweeper) })
	}
}

func every(ctx context.Context, interval time.Duration, job func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			job()
		case <-ctx.Done():
			return
		}
	}
}

func purgeLogs(ctx context.Context, db *gorm.DB, days int) {
	cutoff := time.Now().AddDate(0, 0, -days)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Warn("log cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
}

func sweepTokens(ctx context.Context, sweeper TokenSweeper) {
	n, err := sweeper.SweepExpired(ctx)
	if err != nil {
		slog.Warn("refresh token sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("refresh token sweep completed", "deleted", n)
	}
}
