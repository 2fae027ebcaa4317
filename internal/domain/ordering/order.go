package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of an order as owned by the ordering context
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered,
		StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsCommissionable reports whether an order in this status may have a
// commission calculated for it. Only confirmed or delivered orders qualify.
func (s Status) IsCommissionable() bool {
	return s == StatusConfirmed || s == StatusDelivered
}

// OrderItem is a line item within an order
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	VendorID  *uuid.UUID      `json:"vendor_id"` // nil when the product has no vendor
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is a read model of the ordering context. The settlement side never
// mutates orders; it only reads them to calculate commissions.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PrimaryVendorID returns the vendor of the order's first line item.
// Orders are single-vendor today; multi-vendor orders would need a
// per-item split.
func (o *Order) PrimaryVendorID() *uuid.UUID {
	if len(o.Items) == 0 {
		return nil
	}
	return o.Items[0].VendorID
}

// OrderReader provides read access to orders owned by the ordering context
type OrderReader interface {
	// FindByID finds an order with its line items.
	// Returns shared.ErrNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
}
