package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	FindActive(ctx context.Context, id uuid.UUID, now time.Time) (*models.Token, error)
	Revoke(ctx context.Context, id, userID uuid.UUID, now time.Time) (bool, error)
}

type GormTokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Create(ctx context.Context, token *models.Token) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error; err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// FindActive returns the token only while it is unrevoked and unexpired.
func (r *GormTokenRepository) FindActive(ctx context.Context, id uuid.UUID, now time.Time) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", id, now).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &token, nil
}

// Revoke marks the token revoked if it belongs to userID and is not revoked
// already.
func (r *GormTokenRepository) Revoke(ctx context.Context, id, userID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", id, userID).
		Update("revoked_at", now)
	if result.Error != nil {
		return false, fmt.Errorf("revoke token: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
