package settlement

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Status represents the status of a settlement transaction
type Status string

const (
	// StatusPending indicates the transaction is created but not yet processed
	StatusPending Status = "PENDING"
	// StatusProcessing indicates payment processing is in flight
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted indicates the money movement succeeded
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates processing failed; the transaction may be retried
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the transaction was cancelled before processing
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the transaction is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions is the allowed status transition table.
// FAILED -> PENDING permits retrying a failed settlement.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusPending},
}

// CanTransitionTo reports whether the status may move to target
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PaymentMethod represents how the money moves
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard     PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodDigitalWallet PaymentMethod = "DIGITAL_WALLET"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodBankTransfer, PaymentMethodDigitalWallet:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// TransactionType represents the business nature of the money movement
type TransactionType string

const (
	// TypeSale records a buyer purchase
	TypeSale TransactionType = "SALE"
	// TypeCommission records a vendor payout realizing a commission
	TypeCommission TransactionType = "COMMISSION"
	// TypeRefund records money returned to a buyer
	TypeRefund TransactionType = "REFUND"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeSale, TypeCommission, TypeRefund:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// Bounds holds the configured minimum and maximum transaction amounts
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultBounds returns the platform default amount bounds (in currency units)
func DefaultBounds() Bounds {
	return Bounds{
		Min: decimal.NewFromInt(100),
		Max: decimal.NewFromInt(10_000_000),
	}
}

// Check validates an amount against the bounds
func (b Bounds) Check(amount decimal.Decimal) error {
	if amount.LessThan(b.Min) {
		return shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Amount %s is below the minimum of %s", amount, b.Min))
	}
	if amount.GreaterThan(b.Max) {
		return shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Amount %s exceeds the maximum of %s", amount, b.Max))
	}
	return nil
}

// Transaction represents a settlement-side money movement, distinct from the
// payment gateway's own transaction record.
type Transaction struct {
	shared.BaseAggregateRoot

	// Reference is the unique external reference, TXN-<timestamp>-<random>
	Reference string `json:"reference"`

	Amount decimal.Decimal `json:"amount"`

	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        Status          `json:"status"`
	Type          TransactionType `json:"type"`

	BuyerID     uuid.UUID  `json:"buyer_id"`
	VendorID    *uuid.UUID `json:"vendor_id"`    // nil for system transactions
	InventoryID *uuid.UUID `json:"inventory_id"` // optional linked inventory record

	// CommissionPercent is the commission applied, as a percentage (5.00 = 5%)
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	// VendorAmount is the amount payable to the vendor after commission
	VendorAmount decimal.Decimal `json:"vendor_amount"`

	// PaymentReference is the external gateway reference, set once processed
	PaymentReference string `json:"payment_reference"`

	Notes string `json:"notes"`

	// IntegrityHash is the keyed checksum over the financial fields.
	// Empty when integrity checking is disabled.
	IntegrityHash string `json:"-"`
}

// NewTransaction creates a settlement transaction in PENDING status
func NewTransaction(
	amount decimal.Decimal,
	method PaymentMethod,
	txType TransactionType,
	buyerID uuid.UUID,
	vendorID *uuid.UUID,
	commissionPercent decimal.Decimal,
	vendorAmount decimal.Decimal,
	notes string,
) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Invalid payment method")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if commissionPercent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Commission percentage cannot be negative")
	}
	if vendorAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Vendor amount cannot be negative")
	}

	t := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         NewTransactionReference(),
		Amount:            amount,
		PaymentMethod:     method,
		Status:            StatusPending,
		Type:              txType,
		BuyerID:           buyerID,
		VendorID:          vendorID,
		CommissionPercent: commissionPercent,
		VendorAmount:      vendorAmount,
		Notes:             notes,
	}

	t.AddDomainEvent(NewTransactionCreatedEvent(t))

	return t, nil
}

// NewTransactionReference generates a unique external reference
// in the form TXN-<timestamp>-<random>.
func NewTransactionReference() string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("TXN-%s-%s", time.Now().UTC().Format("20060102150405"), hex.EncodeToString(suffix))
}

// transition moves the transaction to target, enforcing the transition table
func (t *Transaction) transition(target Status) error {
	if !t.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition transaction %s from %s to %s", t.Reference, t.Status, target))
	}
	t.Status = target
	t.UpdatedAt = time.Now()
	return nil
}

// MarkProcessing moves the transaction from PENDING to PROCESSING
func (t *Transaction) MarkProcessing() error {
	if t.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Transaction %s is not in pending status (current: %s)", t.Reference, t.Status))
	}
	return t.transition(StatusProcessing)
}

// Complete moves the transaction to COMPLETED and records the gateway reference
func (t *Transaction) Complete(paymentReference string) error {
	if err := t.transition(StatusCompleted); err != nil {
		return err
	}
	t.PaymentReference = paymentReference
	t.AddDomainEvent(NewTransactionCompletedEvent(t))
	return nil
}

// Fail moves the transaction to FAILED and appends a diagnostic note
func (t *Transaction) Fail(reason string) error {
	if err := t.transition(StatusFailed); err != nil {
		return err
	}
	if reason != "" {
		t.AppendNote("failed: " + reason)
	}
	t.AddDomainEvent(NewTransactionFailedEvent(t, reason))
	return nil
}

// Retry moves a FAILED transaction back to PENDING
func (t *Transaction) Retry() error {
	if t.Status != StatusFailed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot retry transaction %s in %s status, expected FAILED", t.Reference, t.Status))
	}
	return t.transition(StatusPending)
}

// Cancel moves a PENDING transaction to CANCELLED
func (t *Transaction) Cancel(reason string) error {
	if t.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel transaction %s in %s status, expected PENDING", t.Reference, t.Status))
	}
	if err := t.transition(StatusCancelled); err != nil {
		return err
	}
	if reason != "" {
		t.AppendNote("cancelled: " + reason)
	}
	return nil
}

// AppendNote appends a line to the free-text notes
func (t *Transaction) AppendNote(note string) {
	if t.Notes == "" {
		t.Notes = note
	} else {
		t.Notes = t.Notes + "\n" + note
	}
	t.UpdatedAt = time.Now()
}

// SetInventory links an inventory record to the transaction
func (t *Transaction) SetInventory(inventoryID uuid.UUID) {
	t.InventoryID = &inventoryID
	t.UpdatedAt = time.Now()
}

// IsPending returns true if the transaction awaits processing
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}

// IsCompleted returns true if the money movement succeeded
func (t *Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}
