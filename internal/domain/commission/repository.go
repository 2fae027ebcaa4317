package commission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Filter defines filtering options for commission queries
type Filter struct {
	shared.Filter
	VendorID *uuid.UUID
	OrderID  *uuid.UUID
	Status   *Status
	Type     *Type
	FromDate *time.Time
	ToDate   *time.Time
}

// Repository defines the interface for commission persistence
type Repository interface {
	// FindByID finds a commission by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)

	// FindByOrder finds the commission for an order, if any.
	// Returns shared.ErrNotFound when no commission exists for the order.
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Commission, error)

	// FindByNumber finds a commission by its commission number
	FindByNumber(ctx context.Context, commissionNumber string) (*Commission, error)

	// FindByTransaction finds the commission linked to a settlement transaction.
	// Returns shared.ErrNotFound when no commission is linked.
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*Commission, error)

	// FindAll finds commissions matching the filter
	FindAll(ctx context.Context, filter Filter) ([]Commission, error)

	// FindByVendor finds commissions for a vendor matching the filter
	FindByVendor(ctx context.Context, vendorID uuid.UUID, filter Filter) ([]Commission, error)

	// Count counts commissions matching the filter
	Count(ctx context.Context, filter Filter) (int64, error)

	// Create inserts a new commission. A uniqueness violation on the order
	// reference is reported as shared.ErrAlreadyExists so callers can re-fetch
	// the concurrently created record instead of failing.
	Create(ctx context.Context, c *Commission) error

	// Save updates an existing commission
	Save(ctx context.Context, c *Commission) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, c *Commission) error
}
