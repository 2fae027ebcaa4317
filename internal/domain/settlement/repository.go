package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Filter defines filtering options for transaction queries
type Filter struct {
	shared.Filter
	UserID   *uuid.UUID // matches either buyer or vendor
	Type     *TransactionType
	Status   *Status
	Method   *PaymentMethod
	FromDate *time.Time
	ToDate   *time.Time
}

// MethodTotal is an aggregate of transactions sharing a payment method
type MethodTotal struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Repository defines the interface for settlement transaction persistence
type Repository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByReference finds a transaction by its external reference
	FindByReference(ctx context.Context, reference string) (*Transaction, error)

	// FindAll finds transactions matching the filter
	FindAll(ctx context.Context, filter Filter) ([]Transaction, error)

	// Count counts transactions matching the filter
	Count(ctx context.Context, filter Filter) (int64, error)

	// SumAmount sums the amounts of transactions matching the filter
	SumAmount(ctx context.Context, filter Filter) (decimal.Decimal, error)

	// TotalsByMethod aggregates count and amount per payment method over the
	// filtered set (not the full table)
	TotalsByMethod(ctx context.Context, filter Filter) (map[PaymentMethod]MethodTotal, error)

	// Create inserts a new transaction
	Create(ctx context.Context, t *Transaction) error

	// Save updates an existing transaction
	Save(ctx context.Context, t *Transaction) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, t *Transaction) error
}

// ProcessResult is the outcome of a payment-processing attempt
type ProcessResult struct {
	Success   bool
	Reference string // gateway reference when successful
	Message   string // diagnostic detail on failure
}

// PaymentProcessor is the boundary to the external payment infrastructure.
// Implementations wrap gateway outcomes into a success flag or an error;
// retry policy belongs to the calling layer.
type PaymentProcessor interface {
	Process(ctx context.Context, t *Transaction) (ProcessResult, error)
}
