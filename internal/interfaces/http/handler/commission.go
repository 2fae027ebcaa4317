package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	commissionapp "github.com/marketplace/backend/internal/application/commission"
)

// CommissionHandler handles commission-related API endpoints
type CommissionHandler struct {
	BaseHandler
	service *commissionapp.Service
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(service *commissionapp.Service) *CommissionHandler {
	return &CommissionHandler{service: service}
}

// RegisterRoutes registers commission routes on the API group
func (h *CommissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	commissions := rg.Group("/commissions")
	{
		commissions.POST("/calculate", h.Calculate)
		commissions.POST("/calculate-batch", h.CalculateBatch)
		commissions.GET("", h.List)
		commissions.GET("/:id", h.GetByID)
		commissions.GET("/order/:order_id", h.GetByOrder)
		commissions.POST("/:id/approve", h.Approve)
		commissions.POST("/:id/dispute", h.Dispute)
		commissions.POST("/:id/resolve", h.ResolveDispute)
		commissions.POST("/:id/cancel", h.Cancel)
	}

	rg.GET("/vendors/:vendor_id/earnings", h.VendorEarnings)
}

// Calculate computes the commission for a confirmed order.
// Repeated calls for the same order return the existing commission.
func (h *CommissionHandler) Calculate(c *gin.Context) {
	var req commissionapp.CalculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.CalculateForOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// CalculateBatch computes commissions for many orders in one call
func (h *CommissionHandler) CalculateBatch(c *gin.Context) {
	var req commissionapp.BatchCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.ProcessOrdersBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetByID retrieves a commission by its ID
func (h *CommissionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetByOrder retrieves the commission calculated for an order
func (h *CommissionHandler) GetByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.service.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// List retrieves a paginated list of commissions with optional filtering
func (h *CommissionHandler) List(c *gin.Context) {
	var filter commissionapp.CommissionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Approve transitions a pending commission to approved
func (h *CommissionHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req commissionapp.ApproveCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.Approve(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Dispute places an approved commission under dispute
func (h *CommissionHandler) Dispute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req commissionapp.DisputeCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.Dispute(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ResolveDispute returns a disputed commission to approved
func (h *CommissionHandler) ResolveDispute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req commissionapp.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.ResolveDispute(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel cancels a pending commission
func (h *CommissionHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req commissionapp.CancelCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// VendorEarnings returns the vendor earnings report for a period
func (h *CommissionHandler) VendorEarnings(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("vendor_id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var filter commissionapp.CommissionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	report, err := h.service.GetVendorEarnings(c.Request.Context(), vendorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
