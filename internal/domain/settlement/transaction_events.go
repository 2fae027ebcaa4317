package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Event type names for the transaction aggregate
const (
	EventTransactionCreated   = "TransactionCreated"
	EventTransactionCompleted = "TransactionCompleted"
	EventTransactionFailed    = "TransactionFailed"
	EventRefundProcessed      = "RefundProcessed"
)

// TransactionCreatedEvent is raised when a settlement transaction is created
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Type          TransactionType `json:"transaction_type"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	VendorID      *uuid.UUID      `json:"vendor_id"`
}

// EventType returns the event type name
func (e *TransactionCreatedEvent) EventType() string { return EventTransactionCreated }

// NewTransactionCreatedEvent creates a new TransactionCreatedEvent
func NewTransactionCreatedEvent(t *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionCreated, "Transaction", t.ID),
		Reference:       t.Reference,
		Amount:          t.Amount,
		PaymentMethod:   t.PaymentMethod,
		Type:            t.Type,
		BuyerID:         t.BuyerID,
		VendorID:        t.VendorID,
	}
}

// TransactionCompletedEvent is raised when a money movement succeeds
type TransactionCompletedEvent struct {
	shared.BaseDomainEvent
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
	Type             TransactionType `json:"transaction_type"`
	PaymentReference string          `json:"payment_reference"`
	VendorID         *uuid.UUID      `json:"vendor_id"`
}

// EventType returns the event type name
func (e *TransactionCompletedEvent) EventType() string { return EventTransactionCompleted }

// NewTransactionCompletedEvent creates a new TransactionCompletedEvent
func NewTransactionCompletedEvent(t *Transaction) *TransactionCompletedEvent {
	return &TransactionCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTransactionCompleted, "Transaction", t.ID),
		Reference:        t.Reference,
		Amount:           t.Amount,
		Type:             t.Type,
		PaymentReference: t.PaymentReference,
		VendorID:         t.VendorID,
	}
}

// TransactionFailedEvent is raised when payment processing fails
type TransactionFailedEvent struct {
	shared.BaseDomainEvent
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"transaction_type"`
	Reason    string          `json:"reason"`
}

// EventType returns the event type name
func (e *TransactionFailedEvent) EventType() string { return EventTransactionFailed }

// NewTransactionFailedEvent creates a new TransactionFailedEvent
func NewTransactionFailedEvent(t *Transaction, reason string) *TransactionFailedEvent {
	return &TransactionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionFailed, "Transaction", t.ID),
		Reference:       t.Reference,
		Amount:          t.Amount,
		Type:            t.Type,
		Reason:          reason,
	}
}

// RefundProcessedEvent is raised when a refund transaction is settled
type RefundProcessedEvent struct {
	shared.BaseDomainEvent
	Reference         string          `json:"reference"`
	OriginalReference string          `json:"original_reference"`
	Amount            decimal.Decimal `json:"amount"`
	BuyerID           uuid.UUID       `json:"buyer_id"`
	Reason            string          `json:"reason"`
}

// EventType returns the event type name
func (e *RefundProcessedEvent) EventType() string { return EventRefundProcessed }

// NewRefundProcessedEvent creates a new RefundProcessedEvent
func NewRefundProcessedEvent(refund *Transaction, originalReference, reason string) *RefundProcessedEvent {
	return &RefundProcessedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventRefundProcessed, "Transaction", refund.ID),
		Reference:         refund.Reference,
		OriginalReference: originalReference,
		Amount:            refund.Amount,
		BuyerID:           refund.BuyerID,
		Reason:            reason,
	}
}
