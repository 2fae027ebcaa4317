package commission

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Event type names for the commission aggregate
const (
	EventCalculated      = "CommissionCalculated"
	EventApproved        = "CommissionApproved"
	EventPaid            = "CommissionPaid"
	EventDisputed        = "CommissionDisputed"
	EventDisputeResolved = "CommissionDisputeResolved"
	EventCancelled       = "CommissionCancelled"
)

// CalculatedEvent is raised when a commission is calculated for an order
type CalculatedEvent struct {
	shared.BaseDomainEvent
	CommissionNumber string          `json:"commission_number"`
	OrderID          uuid.UUID       `json:"order_id"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	OrderAmount      decimal.Decimal `json:"order_amount"`
	Rate             decimal.Decimal `json:"rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	PlatformAmount   decimal.Decimal `json:"platform_amount"`
	Currency         string          `json:"currency"`
	CommissionType   Type            `json:"commission_type"`
}

// EventType returns the event type name
func (e *CalculatedEvent) EventType() string { return EventCalculated }

// NewCalculatedEvent creates a new CalculatedEvent
func NewCalculatedEvent(c *Commission) *CalculatedEvent {
	return &CalculatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventCalculated, "Commission", c.ID),
		CommissionNumber: c.CommissionNumber,
		OrderID:          c.OrderID,
		VendorID:         c.VendorID,
		OrderAmount:      c.OrderAmount,
		Rate:             c.Rate,
		CommissionAmount: c.CommissionAmount,
		VendorAmount:     c.VendorAmount,
		PlatformAmount:   c.PlatformAmount,
		Currency:         c.Currency,
		CommissionType:   c.Type,
	}
}

// ApprovedEvent is raised when a commission is approved for payout
type ApprovedEvent struct {
	shared.BaseDomainEvent
	CommissionNumber string          `json:"commission_number"`
	OrderID          uuid.UUID       `json:"order_id"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	ApprovedBy       uuid.UUID       `json:"approved_by"`
}

// EventType returns the event type name
func (e *ApprovedEvent) EventType() string { return EventApproved }

// NewApprovedEvent creates a new ApprovedEvent
func NewApprovedEvent(c *Commission) *ApprovedEvent {
	e := &ApprovedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventApproved, "Commission", c.ID),
		CommissionNumber: c.CommissionNumber,
		OrderID:          c.OrderID,
		VendorID:         c.VendorID,
		VendorAmount:     c.VendorAmount,
	}
	if c.ApprovedBy != nil {
		e.ApprovedBy = *c.ApprovedBy
	}
	return e
}

// PaidEvent is raised when a commission is settled to the vendor
type PaidEvent struct {
	shared.BaseDomainEvent
	CommissionNumber string          `json:"commission_number"`
	OrderID          uuid.UUID       `json:"order_id"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	TransactionID    uuid.UUID       `json:"transaction_id"`
}

// EventType returns the event type name
func (e *PaidEvent) EventType() string { return EventPaid }

// NewPaidEvent creates a new PaidEvent
func NewPaidEvent(c *Commission) *PaidEvent {
	e := &PaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventPaid, "Commission", c.ID),
		CommissionNumber: c.CommissionNumber,
		OrderID:          c.OrderID,
		VendorID:         c.VendorID,
		VendorAmount:     c.VendorAmount,
	}
	if c.TransactionID != nil {
		e.TransactionID = *c.TransactionID
	}
	return e
}

// DisputedEvent is raised when an approved commission is disputed
type DisputedEvent struct {
	shared.BaseDomainEvent
	CommissionNumber string    `json:"commission_number"`
	VendorID         uuid.UUID `json:"vendor_id"`
	Reason           string    `json:"reason"`
}

// EventType returns the event type name
func (e *DisputedEvent) EventType() string { return EventDisputed }

// NewDisputedEvent creates a new DisputedEvent
func NewDisputedEvent(c *Commission, reason string) *DisputedEvent {
	return &DisputedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventDisputed, "Commission", c.ID),
		CommissionNumber: c.CommissionNumber,
		VendorID:         c.VendorID,
		Reason:           reason,
	}
}

// DisputeResolvedEvent is raised when a disputed commission returns to APPROVED
type DisputeResolvedEvent struct {
	shared.BaseDomainEvent
	CommissionNumber string    `json:"commission_number"`
	VendorID         uuid.UUID `json:"vendor_id"`
	Resolution       string    `json:"resolution"`
}

// EventType returns the event type name
func (e *DisputeResolvedEvent) EventType() string { return EventDisputeResolved }

// NewDisputeResolvedEvent creates a new DisputeResolvedEvent
func NewDisputeResolvedEvent(c *Commission, resolution string) *DisputeResolvedEvent {
	return &DisputeResolvedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventDisputeResolved, "Commission", c.ID),
		CommissionNumber: c.CommissionNumber,
		VendorID:         c.VendorID,
		Resolution:       resolution,
	}
}

// CancelledEvent is raised when a pending commission is cancelled
type CancelledEvent struct {
	shared.BaseDomainEvent
	CommissionNumber string    `json:"commission_number"`
	OrderID          uuid.UUID `json:"order_id"`
	Reason           string    `json:"reason"`
}

// EventType returns the event type name
func (e *CancelledEvent) EventType() string { return EventCancelled }

// NewCancelledEvent creates a new CancelledEvent
func NewCancelledEvent(c *Commission, reason string) *CancelledEvent {
	return &CancelledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventCancelled, "Commission", c.ID),
		CommissionNumber: c.CommissionNumber,
		OrderID:          c.OrderID,
		Reason:           reason,
	}
}
