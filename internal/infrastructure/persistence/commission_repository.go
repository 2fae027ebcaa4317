package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormCommissionRepository implements commission.Repository using GORM
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// FindByID finds a commission by its ID
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the commission for an order
func (r *GormCommissionRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*commission.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a commission by its commission number
func (r *GormCommissionRepository) FindByNumber(ctx context.Context, commissionNumber string) (*commission.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).
		Where("commission_number = ?", commissionNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransaction finds the commission linked to a settlement transaction
func (r *GormCommissionRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*commission.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds commissions matching the filter
func (r *GormCommissionRepository) FindAll(ctx context.Context, filter commission.Filter) ([]commission.Commission, error) {
	var commissionModels []models.CommissionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CommissionModel{}), filter)

	if err := query.Find(&commissionModels).Error; err != nil {
		return nil, err
	}

	commissions := make([]commission.Commission, len(commissionModels))
	for i, model := range commissionModels {
		commissions[i] = *model.ToDomain()
	}
	return commissions, nil
}

// FindByVendor finds commissions for a vendor matching the filter
func (r *GormCommissionRepository) FindByVendor(ctx context.Context, vendorID uuid.UUID, filter commission.Filter) ([]commission.Commission, error) {
	filter.VendorID = &vendorID
	return r.FindAll(ctx, filter)
}

// Count counts commissions matching the filter
func (r *GormCommissionRepository) Count(ctx context.Context, filter commission.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.CommissionModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new commission. A uniqueness violation on the order
// reference is reported as shared.ErrAlreadyExists.
func (r *GormCommissionRepository) Create(ctx context.Context, c *commission.Commission) error {
	model := models.CommissionModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save creates or updates a commission
func (r *GormCommissionRepository) Save(ctx context.Context, c *commission.Commission) error {
	model := models.CommissionModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a commission with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row was modified concurrently.
func (r *GormCommissionRepository) SaveWithLock(ctx context.Context, c *commission.Commission) error {
	currentVersion := c.Version
	c.IncrementVersion()

	model := models.CommissionModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", c.ID, currentVersion).
		Updates(model)

	if result.Error != nil {
		c.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		c.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies filter conditions, pagination and ordering to the query
func (r *GormCommissionRepository) applyFilter(query *gorm.DB, filter commission.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	// PageSize <= 0 means no limit; reports aggregate over the full result set
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, CommissionSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyConditions applies filter conditions without pagination
func (r *GormCommissionRepository) applyConditions(query *gorm.DB, filter commission.Filter) *gorm.DB {
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.FromDate != nil {
		query = query.Where("calculated_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("calculated_at <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormCommissionRepository implements commission.Repository
var _ commission.Repository = (*GormCommissionRepository)(nil)
