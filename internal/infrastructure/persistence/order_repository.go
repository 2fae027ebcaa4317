package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormOrderReader implements ordering.OrderReader using GORM
type GormOrderReader struct {
	db *gorm.DB
}

// NewGormOrderReader creates a new GormOrderReader
func NewGormOrderReader(db *gorm.DB) *GormOrderReader {
	return &GormOrderReader{db: db}
}

// FindByID finds an order with its line items
func (r *GormOrderReader) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormOrderReader implements ordering.OrderReader
var _ ordering.OrderReader = (*GormOrderReader)(nil)
