package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/commission"
)

// CalculateCommissionRequest represents a request to calculate a commission for an order
type CalculateCommissionRequest struct {
	OrderID    uuid.UUID        `json:"order_id" binding:"required"`
	Type       commission.Type  `json:"type" binding:"omitempty,commission_type"`
	CustomRate *decimal.Decimal `json:"custom_rate"`
	Notes      string           `json:"notes" binding:"max=500"`
}

// ApproveCommissionRequest represents a request to approve a commission
type ApproveCommissionRequest struct {
	ApproverID uuid.UUID `json:"approver_id" binding:"required"`
	Notes      string    `json:"notes" binding:"max=500"`
}

// DisputeCommissionRequest represents a request to dispute an approved commission
type DisputeCommissionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ResolveDisputeRequest represents a request to resolve a disputed commission
type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required,min=1,max=500"`
}

// CancelCommissionRequest represents a request to cancel a pending commission
type CancelCommissionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BatchCalculateRequest represents a request to calculate commissions for many orders
type BatchCalculateRequest struct {
	OrderIDs []uuid.UUID     `json:"order_ids" binding:"required,min=1,max=500"`
	Type     commission.Type `json:"type" binding:"omitempty,commission_type"`
}

// CommissionListFilter represents filter options for commission listing
type CommissionListFilter struct {
	VendorID *uuid.UUID         `form:"vendor_id"`
	OrderID  *uuid.UUID         `form:"order_id"`
	Status   *commission.Status `form:"status"`
	Type     *commission.Type   `form:"type"`
	FromDate *time.Time         `form:"from_date"`
	ToDate   *time.Time         `form:"to_date"`
	Page     int                `form:"page" binding:"omitempty,min=1"`
	PageSize int                `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string             `form:"order_by"`
	OrderDir string             `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CommissionResponse represents a commission in API responses
type CommissionResponse struct {
	ID                uuid.UUID       `json:"id"`
	CommissionNumber  string          `json:"commission_number"`
	OrderID           uuid.UUID       `json:"order_id"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	TransactionID     *uuid.UUID      `json:"transaction_id,omitempty"`
	OrderAmount       decimal.Decimal `json:"order_amount"`
	Rate              decimal.Decimal `json:"rate"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	VendorAmount      decimal.Decimal `json:"vendor_amount"`
	PlatformAmount    decimal.Decimal `json:"platform_amount"`
	Currency          string          `json:"currency"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	CalculationMethod string          `json:"calculation_method"`
	Notes             string          `json:"notes,omitempty"`
	AdminNotes        string          `json:"admin_notes,omitempty"`
	CalculatedAt      time.Time       `json:"calculated_at"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	DisputedAt        *time.Time      `json:"disputed_at,omitempty"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
	ApprovedBy        *uuid.UUID      `json:"approved_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToCommissionResponse converts a domain commission to a response DTO
func ToCommissionResponse(c *commission.Commission) CommissionResponse {
	return CommissionResponse{
		ID:                c.ID,
		CommissionNumber:  c.CommissionNumber,
		OrderID:           c.OrderID,
		VendorID:          c.VendorID,
		TransactionID:     c.TransactionID,
		OrderAmount:       c.OrderAmount,
		Rate:              c.Rate,
		CommissionAmount:  c.CommissionAmount,
		VendorAmount:      c.VendorAmount,
		PlatformAmount:    c.PlatformAmount,
		Currency:          c.Currency,
		Type:              c.Type.String(),
		Status:            c.Status.String(),
		CalculationMethod: string(c.CalculationMethod),
		Notes:             c.Notes,
		AdminNotes:        c.AdminNotes,
		CalculatedAt:      c.CalculatedAt,
		ApprovedAt:        c.ApprovedAt,
		PaidAt:            c.PaidAt,
		DisputedAt:        c.DisputedAt,
		ResolvedAt:        c.ResolvedAt,
		ApprovedBy:        c.ApprovedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ToCommissionResponses converts a slice of domain commissions to response DTOs
func ToCommissionResponses(commissions []commission.Commission) []CommissionResponse {
	responses := make([]CommissionResponse, len(commissions))
	for i := range commissions {
		responses[i] = ToCommissionResponse(&commissions[i])
	}
	return responses
}

// StatusBreakdown aggregates commissions sharing a status
type StatusBreakdown struct {
	Count            int64           `json:"count"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
}

// VendorEarningsReport summarizes a vendor's commissions over a period
type VendorEarningsReport struct {
	VendorID             uuid.UUID                  `json:"vendor_id"`
	FromDate             *time.Time                 `json:"from_date,omitempty"`
	ToDate               *time.Time                 `json:"to_date,omitempty"`
	CommissionCount      int64                      `json:"commission_count"`
	TotalOrderAmount     decimal.Decimal            `json:"total_order_amount"`
	TotalCommission      decimal.Decimal            `json:"total_commission"`
	TotalVendorEarnings  decimal.Decimal            `json:"total_vendor_earnings"`
	PaidVendorEarnings   decimal.Decimal            `json:"paid_vendor_earnings"`
	PendingVendorEarning decimal.Decimal            `json:"pending_vendor_earnings"`
	AverageRate          decimal.Decimal            `json:"average_rate"`
	Currency             string                     `json:"currency"`
	ByStatus             map[string]StatusBreakdown `json:"by_status"`
}

// BatchOrderFailure records a single order that failed during batch calculation
type BatchOrderFailure struct {
	OrderID uuid.UUID `json:"order_id"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// BatchResult summarizes a batch commission calculation
type BatchResult struct {
	Succeeded []CommissionResponse `json:"succeeded"`
	Failed    []BatchOrderFailure  `json:"failed"`
}
