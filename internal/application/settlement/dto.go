package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/settlement"
)

// CreateCommissionTransactionRequest represents a request to settle an approved commission
type CreateCommissionTransactionRequest struct {
	CommissionID  uuid.UUID                `json:"commission_id" binding:"required"`
	PaymentMethod settlement.PaymentMethod `json:"payment_method" binding:"required,payment_method"`
	Notes         string                   `json:"notes" binding:"max=500"`
}

// ProcessRefundRequest represents a request to refund a completed transaction
type ProcessRefundRequest struct {
	TransactionID uuid.UUID        `json:"transaction_id" binding:"required"`
	Amount        *decimal.Decimal `json:"amount"` // nil means full refund
	Reason        string           `json:"reason" binding:"max=500"`
}

// TransactionListFilter represents filter options for transaction history
type TransactionListFilter struct {
	UserID   *uuid.UUID                  `form:"user_id"`
	Type     *settlement.TransactionType `form:"type"`
	Status   *settlement.Status          `form:"status"`
	Method   *settlement.PaymentMethod   `form:"method"`
	FromDate *time.Time                  `form:"from_date"`
	ToDate   *time.Time                  `form:"to_date"`
	Page     int                         `form:"page" binding:"omitempty,min=1"`
	PageSize int                         `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string                      `form:"order_by"`
	OrderDir string                      `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransactionResponse represents a settlement transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID       `json:"id"`
	Reference         string          `json:"reference"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	Type              string          `json:"type"`
	BuyerID           uuid.UUID       `json:"buyer_id"`
	VendorID          *uuid.UUID      `json:"vendor_id,omitempty"`
	InventoryID       *uuid.UUID      `json:"inventory_id,omitempty"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	VendorAmount      decimal.Decimal `json:"vendor_amount"`
	PaymentReference  string          `json:"payment_reference,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToTransactionResponse converts a domain transaction to a response DTO
func ToTransactionResponse(t *settlement.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                t.ID,
		Reference:         t.Reference,
		Amount:            t.Amount,
		PaymentMethod:     t.PaymentMethod.String(),
		Status:            t.Status.String(),
		Type:              t.Type.String(),
		BuyerID:           t.BuyerID,
		VendorID:          t.VendorID,
		InventoryID:       t.InventoryID,
		CommissionPercent: t.CommissionPercent,
		VendorAmount:      t.VendorAmount,
		PaymentReference:  t.PaymentReference,
		Notes:             t.Notes,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions to response DTOs
func ToTransactionResponses(transactions []settlement.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = ToTransactionResponse(&transactions[i])
	}
	return responses
}

// MethodSummary aggregates transactions sharing a payment method
type MethodSummary struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// HistorySummary aggregates the filtered transaction set of a history query
type HistorySummary struct {
	Count         int64                    `json:"count"`
	TotalAmount   decimal.Decimal          `json:"total_amount"`
	AverageAmount decimal.Decimal          `json:"average_amount"`
	ByMethod      map[string]MethodSummary `json:"by_method"`
}

// HistoryPage is a paginated transaction history with summary aggregates
// computed over the full filtered set, not just the returned page.
type HistoryPage struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
	Summary    HistorySummary        `json:"summary"`
}

// IntegrityReport is the outcome of validating a transaction's integrity.
// Validation problems are collected, not raised; an empty Errors slice with
// Valid=true means the record passed every check.
type IntegrityReport struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Valid         bool      `json:"valid"`
	Errors        []string  `json:"errors"`
	CheckedAt     time.Time `json:"checked_at"`
}
