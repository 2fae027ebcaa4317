package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormUserReader implements identity.UserReader using GORM
type GormUserReader struct {
	db *gorm.DB
}

// NewGormUserReader creates a new GormUserReader
func NewGormUserReader(db *gorm.DB) *GormUserReader {
	return &GormUserReader{db: db}
}

// FindByID finds a user by ID
func (r *GormUserReader) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists reports whether a user with the given ID exists
func (r *GormUserReader) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormUserReader implements identity.UserReader
var _ identity.UserReader = (*GormUserReader)(nil)
