package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormRefreshTokenStore struct {
	db *gorm.DB
}

func NewGormRefreshTokenStore(db *gorm.DB) *GormRefreshTokenStore {
	return &GormRefreshTokenStore{db: db}
}

func (s *GormRefreshTokenStore) Save(ctx context.Context, token *models.RefreshToken) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(token).Error; err != nil {
		return fmt.Errorf("failed to save refresh token: %w", translateError(err))
	}
	return nil
}

func (s *GormRefreshTokenStore) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

func (s *GormRefreshTokenStore) ListActiveByPrincipal(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ?", userID, false).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	return tokens, nil
}

func (s *GormRefreshTokenStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", id, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": at})
	if result.Error != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *GormRefreshTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": at})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormRefreshTokenStore) DeleteExpired(ctx context.Context, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", at).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Rotate relies on the row lock taken by the conditional UPDATE: a second
// transaction blocks until the first commits and then matches zero rows.
func (s *GormRefreshTokenStore) Rotate(ctx context.Context, oldID uuid.UUID, at time.Time, next *models.RefreshToken) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", oldID, false).
			Updates(map[string]interface{}{"revoked": true, "revoked_at": at})
		if result.Error != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRevoked
		}
		if err := tx.Omit("User").Create(next).Error; err != nil {
			return fmt.Errorf("failed to save rotated refresh token: %w", translateError(err))
		}
		return nil
	})
}
