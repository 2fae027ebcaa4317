package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/settlement"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormTransactionRepository implements settlement.Repository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds a transaction by its external reference
func (r *GormTransactionRepository) FindByReference(ctx context.Context, reference string) (*settlement.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds transactions matching the filter
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter settlement.Filter) ([]settlement.Transaction, error) {
	var transactionModels []models.TransactionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter)

	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]settlement.Transaction, len(transactionModels))
	for i, model := range transactionModels {
		transactions[i] = *model.ToDomain()
	}
	return transactions, nil
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter settlement.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumAmount sums the amounts of transactions matching the filter
func (r *GormTransactionRepository) SumAmount(ctx context.Context, filter settlement.Filter) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter)

	if err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// methodTotalRow is the scan target for the per-method aggregation
type methodTotalRow struct {
	PaymentMethod settlement.PaymentMethod
	Count         int64
	Amount        decimal.Decimal
}

// TotalsByMethod aggregates transaction counts and amounts per payment method
func (r *GormTransactionRepository) TotalsByMethod(ctx context.Context, filter settlement.Filter) (map[settlement.PaymentMethod]settlement.MethodTotal, error) {
	var rows []methodTotalRow
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter)

	if err := query.
		Select("payment_method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("payment_method").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[settlement.PaymentMethod]settlement.MethodTotal, len(rows))
	for _, row := range rows {
		totals[row.PaymentMethod] = settlement.MethodTotal{
			Count:  row.Count,
			Amount: row.Amount,
		}
	}
	return totals, nil
}

// Create inserts a new transaction
func (r *GormTransactionRepository) Create(ctx context.Context, t *settlement.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, t *settlement.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a transaction with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row was modified concurrently.
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, t *settlement.Transaction) error {
	currentVersion := t.Version
	t.IncrementVersion()

	model := models.TransactionModelFromDomain(t)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", t.ID, currentVersion).
		Updates(model)

	if result.Error != nil {
		t.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		t.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies filter conditions, pagination and ordering to the query
func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter settlement.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	// PageSize <= 0 means no limit
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, TransactionSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyConditions applies filter conditions without pagination
func (r *GormTransactionRepository) applyConditions(query *gorm.DB, filter settlement.Filter) *gorm.DB {
	if filter.UserID != nil {
		// A user's history covers both sides of the movement
		query = query.Where("buyer_id = ? OR vendor_id = ?", *filter.UserID, *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("payment_method = ?", *filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormTransactionRepository implements settlement.Repository
var _ settlement.Repository = (*GormTransactionRepository)(nil)
