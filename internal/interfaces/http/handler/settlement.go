package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	settlementapp "github.com/marketplace/backend/internal/application/settlement"
)

// TransactionHandler handles settlement transaction API endpoints
type TransactionHandler struct {
	BaseHandler
	service *settlementapp.Service
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service *settlementapp.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// RegisterRoutes registers transaction routes on the API group
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/transactions")
	{
		transactions.POST("/commission", h.CreateCommissionTransaction)
		transactions.POST("/refund", h.ProcessRefund)
		transactions.GET("", h.History)
		transactions.GET("/:id", h.GetByID)
		transactions.POST("/:id/process", h.ProcessPayment)
		transactions.GET("/:id/integrity", h.ValidateIntegrity)
	}
}

// CreateCommissionTransaction creates the payout transaction for an approved
// commission. Calling it again for the same commission returns the existing
// transaction.
func (h *TransactionHandler) CreateCommissionTransaction(c *gin.Context) {
	var req settlementapp.CreateCommissionTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.CreateCommissionTransaction(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves a transaction by its ID
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ProcessPayment submits a pending transaction to the payment gateway
func (h *TransactionHandler) ProcessPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	result, err := h.service.ProcessPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ProcessRefund creates and completes a refund for a completed transaction
func (h *TransactionHandler) ProcessRefund(c *gin.Context) {
	var req settlementapp.ProcessRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.ProcessRefund(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// History returns the paginated transaction history with summary aggregates
func (h *TransactionHandler) History(c *gin.Context) {
	var filter settlementapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.service.GetHistory(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, page)
}

// ValidateIntegrity re-checks a transaction's stored financial fields
func (h *TransactionHandler) ValidateIntegrity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	report, err := h.service.ValidateIntegrity(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
