package commission

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Status represents the status of a commission
type Status string

const (
	// StatusPending indicates the commission has been calculated but not yet approved
	StatusPending Status = "PENDING"
	// StatusApproved indicates the commission is approved for payout
	StatusApproved Status = "APPROVED"
	// StatusPaid indicates the commission has been settled to the vendor
	StatusPaid Status = "PAID"
	// StatusDisputed indicates the commission is under dispute
	StatusDisputed Status = "DISPUTED"
	// StatusCancelled indicates the commission was cancelled before approval
	StatusCancelled Status = "CANCELLED"
	// StatusRefunded indicates the underlying order was refunded
	StatusRefunded Status = "REFUNDED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid,
		StatusDisputed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the commission is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled || s == StatusRefunded
}

// Type represents the commission type, which determines the applicable rate
type Type string

const (
	// TypeStandard is the default commission type
	TypeStandard Type = "STANDARD"
	// TypePremium applies to premium vendor accounts
	TypePremium Type = "PREMIUM"
	// TypePromotional applies during promotional campaigns
	TypePromotional Type = "PROMOTIONAL"
	// TypeCategoryBased applies category-specific rates
	TypeCategoryBased Type = "CATEGORY_BASED"
)

// IsValid checks if the commission type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeStandard, TypePremium, TypePromotional, TypeCategoryBased:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// CalculationMethod describes how a commission was calculated
type CalculationMethod string

const (
	// CalculationAutomatic indicates the rate came from the configured rate table
	CalculationAutomatic CalculationMethod = "automatic"
	// CalculationManual indicates a custom rate was supplied by an operator
	CalculationManual CalculationMethod = "manual"
)

// Commission represents the platform's cut of a confirmed order.
// It is a financial audit record: commissions are never physically deleted,
// they only move through the status state machine.
type Commission struct {
	shared.BaseAggregateRoot

	CommissionNumber string `json:"commission_number"`

	// Source references
	OrderID       uuid.UUID  `json:"order_id"`
	VendorID      uuid.UUID  `json:"vendor_id"`
	TransactionID *uuid.UUID `json:"transaction_id"` // set once settlement begins

	// Monetary fields; VendorAmount + PlatformAmount always equals OrderAmount
	OrderAmount      decimal.Decimal `json:"order_amount"`
	Rate             decimal.Decimal `json:"rate"` // fraction in [0,1], 4 decimal places
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	PlatformAmount   decimal.Decimal `json:"platform_amount"`
	Currency         string          `json:"currency"`

	Type              Type              `json:"type"`
	Status            Status            `json:"status"`
	CalculationMethod CalculationMethod `json:"calculation_method"`

	Notes      string `json:"notes"`
	AdminNotes string `json:"admin_notes"`

	// Lifecycle timestamps
	CalculatedAt time.Time  `json:"calculated_at"`
	ApprovedAt   *time.Time `json:"approved_at"`
	PaidAt       *time.Time `json:"paid_at"`
	DisputedAt   *time.Time `json:"disputed_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	ApprovedBy   *uuid.UUID `json:"approved_by"`
}

// NewCommission calculates and creates a commission for an order.
// The split is always recomputed from orderAmount and rate; caller-supplied
// amounts are never trusted, which is what keeps the balance invariant intact.
func NewCommission(
	orderID uuid.UUID,
	vendorID uuid.UUID,
	orderAmount decimal.Decimal,
	rate decimal.Decimal,
	commissionType Type,
	method CalculationMethod,
	currency string,
) (*Commission, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if !commissionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMMISSION_TYPE", "Invalid commission type")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}

	rate = rate.Round(4)
	split, err := CalculateSplit(orderAmount, rate)
	if err != nil {
		return nil, err
	}

	c := &Commission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CommissionNumber:  NewCommissionNumber(),
		OrderID:           orderID,
		VendorID:          vendorID,
		OrderAmount:       orderAmount,
		Rate:              rate,
		CommissionAmount:  split.CommissionAmount,
		VendorAmount:      split.VendorAmount,
		PlatformAmount:    split.PlatformAmount,
		Currency:          currency,
		Type:              commissionType,
		Status:            StatusPending,
		CalculationMethod: method,
		CalculatedAt:      time.Now(),
	}

	c.AddDomainEvent(NewCalculatedEvent(c))

	return c, nil
}

// DefaultCurrency is the platform settlement currency (Colombian peso)
const DefaultCurrency = "COP"

// NewCommissionNumber generates a human-readable commission number
// in the form COM-<timestamp>-<random>.
func NewCommissionNumber() string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("COM-%s-%s", time.Now().UTC().Format("20060102150405"), hex.EncodeToString(suffix))
}

// Approve transitions the commission from PENDING to APPROVED
func (c *Commission) Approve(approverID uuid.UUID, notes string) error {
	if c.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve commission in %s status, expected PENDING", c.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}

	now := time.Now()
	c.Status = StatusApproved
	c.ApprovedAt = &now
	c.ApprovedBy = &approverID
	if notes != "" {
		c.appendAdminNote(notes)
	}
	c.UpdatedAt = now

	c.AddDomainEvent(NewApprovedEvent(c))

	return nil
}

// MarkPaid transitions the commission from APPROVED to PAID.
// This is invoked as a coupled side effect of completing the settlement transaction.
func (c *Commission) MarkPaid() error {
	if c.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark commission paid in %s status, expected APPROVED", c.Status))
	}

	now := time.Now()
	c.Status = StatusPaid
	c.PaidAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(NewPaidEvent(c))

	return nil
}

// Dispute transitions the commission from APPROVED to DISPUTED
func (c *Commission) Dispute(reason string) error {
	if c.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot dispute commission in %s status, expected APPROVED", c.Status))
	}

	now := time.Now()
	c.Status = StatusDisputed
	c.DisputedAt = &now
	if reason != "" {
		c.appendAdminNote("dispute: " + reason)
	}
	c.UpdatedAt = now

	c.AddDomainEvent(NewDisputedEvent(c, reason))

	return nil
}

// ResolveDispute transitions the commission from DISPUTED back to APPROVED
func (c *Commission) ResolveDispute(resolution string) error {
	if c.Status != StatusDisputed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot resolve commission in %s status, expected DISPUTED", c.Status))
	}

	now := time.Now()
	c.Status = StatusApproved
	c.ResolvedAt = &now
	if resolution != "" {
		c.appendAdminNote("resolution: " + resolution)
	}
	c.UpdatedAt = now

	c.AddDomainEvent(NewDisputeResolvedEvent(c, resolution))

	return nil
}

// Cancel transitions the commission from PENDING to CANCELLED
func (c *Commission) Cancel(reason string) error {
	if c.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel commission in %s status, expected PENDING", c.Status))
	}

	c.Status = StatusCancelled
	if reason != "" {
		c.appendAdminNote("cancelled: " + reason)
	}
	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewCancelledEvent(c, reason))

	return nil
}

// LinkTransaction records the settlement transaction created for this commission
func (c *Commission) LinkTransaction(transactionID uuid.UUID) error {
	if transactionID == uuid.Nil {
		return shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}
	if c.TransactionID != nil && *c.TransactionID != transactionID {
		return shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Commission %s is already linked to a transaction", c.CommissionNumber))
	}

	c.TransactionID = &transactionID
	c.UpdatedAt = time.Now()

	return nil
}

// SetNotes sets the free-text notes
func (c *Commission) SetNotes(notes string) {
	c.Notes = notes
	c.UpdatedAt = time.Now()
}

func (c *Commission) appendAdminNote(note string) {
	if c.AdminNotes == "" {
		c.AdminNotes = note
		return
	}
	c.AdminNotes = c.AdminNotes + "\n" + note
}

// IsPending returns true if the commission awaits approval
func (c *Commission) IsPending() bool {
	return c.Status == StatusPending
}

// IsApproved returns true if the commission is approved for payout
func (c *Commission) IsApproved() bool {
	return c.Status == StatusApproved
}

// IsPaid returns true if the commission has been settled
func (c *Commission) IsPaid() bool {
	return c.Status == StatusPaid
}

// HasTransaction returns true once settlement has begun
func (c *Commission) HasTransaction() bool {
	return c.TransactionID != nil
}
