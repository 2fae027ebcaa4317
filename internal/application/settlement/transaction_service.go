package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/settlement"
	"github.com/marketplace/backend/internal/domain/shared"
)

// amountTolerance is the maximum acceptable drift between a transaction's
// amount and the linked commission's vendor amount.
var amountTolerance = decimal.NewFromFloat(0.01)

// Service handles settlement transaction business operations
type Service struct {
	txRepo         settlement.Repository
	commissionRepo commission.Repository
	orderReader    ordering.OrderReader
	userReader     identity.UserReader
	processor      settlement.PaymentProcessor
	guard          *settlement.IntegrityGuard
	bounds         settlement.Bounds
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new settlement Service
func NewService(
	txRepo settlement.Repository,
	commissionRepo commission.Repository,
	orderReader ordering.OrderReader,
	userReader identity.UserReader,
	processor settlement.PaymentProcessor,
	guard *settlement.IntegrityGuard,
	bounds settlement.Bounds,
	logger *zap.Logger,
) *Service {
	return &Service{
		txRepo:         txRepo,
		commissionRepo: commissionRepo,
		orderReader:    orderReader,
		userReader:     userReader,
		processor:      processor,
		guard:          guard,
		bounds:         bounds,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateCommissionTransaction creates the payout transaction for an approved
// commission. Idempotent: a commission already linked to a transaction returns
// that transaction instead of creating another.
func (s *Service) CreateCommissionTransaction(ctx context.Context, req CreateCommissionTransactionRequest) (*TransactionResponse, error) {
	c, err := s.commissionRepo.FindByID(ctx, req.CommissionID)
	if err != nil {
		return nil, err
	}

	if c.HasTransaction() {
		existing, err := s.txRepo.FindByID(ctx, *c.TransactionID)
		if err != nil {
			return nil, err
		}
		response := ToTransactionResponse(existing)
		return &response, nil
	}

	if !c.IsApproved() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Commission %s must be approved before settlement (current: %s)",
				c.CommissionNumber, c.Status))
	}

	vendor, err := s.userReader.FindByID(ctx, c.VendorID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderReader.FindByID(ctx, c.OrderID)
	if err != nil {
		return nil, err
	}

	if err := s.bounds.Check(c.VendorAmount); err != nil {
		return nil, err
	}

	t, err := settlement.NewTransaction(
		c.VendorAmount,
		req.PaymentMethod,
		settlement.TypeCommission,
		order.BuyerID,
		&vendor.ID,
		c.Rate.Mul(decimal.NewFromInt(100)),
		c.VendorAmount,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}
	t.IntegrityHash = s.guard.ComputeHash(t, commissionContext(c))

	if err := s.txRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	if err := c.LinkTransaction(t.ID); err == nil {
		err = s.commissionRepo.SaveWithLock(ctx, c)
	}
	if err != nil {
		// Cancel the orphaned transaction so a retry can start clean
		if cancelErr := t.Cancel("commission link failed"); cancelErr == nil {
			if saveErr := s.txRepo.Save(ctx, t); saveErr != nil {
				s.logger.Error("Failed to cancel orphaned transaction",
					zap.String("reference", t.Reference), zap.Error(saveErr))
			}
		}
		return nil, err
	}

	s.logger.Info("Commission transaction created",
		zap.String("reference", t.Reference),
		zap.String("commission_number", c.CommissionNumber),
		zap.String("amount", t.Amount.String()))

	s.publishEvents(ctx, t)

	response := ToTransactionResponse(t)
	return &response, nil
}

// GetByID retrieves a transaction by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	t, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(t)
	return &response, nil
}

// ProcessPayment moves a pending transaction through the payment processor.
// The integrity hash is verified before any state changes; a mismatch blocks
// processing entirely. Gateway failure leaves the transaction FAILED with a
// diagnostic note and the linked commission untouched.
func (s *Service) ProcessPayment(ctx context.Context, transactionID uuid.UUID) (*TransactionResponse, error) {
	t, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !t.IsPending() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Transaction %s is not in pending status (current: %s)", t.Reference, t.Status))
	}

	linked, err := s.linkedCommission(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Verify(t, commissionContext(linked)); err != nil {
		s.logger.Error("Integrity check failed before payment",
			zap.String("reference", t.Reference), zap.Error(err))
		return nil, err
	}

	if err := t.MarkProcessing(); err != nil {
		return nil, err
	}
	if err := s.txRepo.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	result, procErr := s.processor.Process(ctx, t)
	if procErr != nil || !result.Success {
		reason := result.Message
		if procErr != nil {
			reason = procErr.Error()
		}
		if failErr := t.Fail(reason); failErr != nil {
			return nil, failErr
		}
		if saveErr := s.txRepo.SaveWithLock(ctx, t); saveErr != nil {
			return nil, saveErr
		}
		s.logger.Warn("Payment processing failed",
			zap.String("reference", t.Reference), zap.String("reason", reason))
		s.publishEvents(ctx, t)
		return nil, shared.NewDomainError("PAYMENT_FAILED",
			fmt.Sprintf("Payment for transaction %s failed: %s", t.Reference, reason))
	}

	if err := t.Complete(result.Reference); err != nil {
		return nil, err
	}
	if err := s.txRepo.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	if linked != nil {
		if err := s.markCommissionPaid(ctx, linked); err != nil {
			// Money already moved; the commission status is reconciled manually
			s.logger.Error("Failed to mark commission paid after settlement",
				zap.String("reference", t.Reference),
				zap.String("commission_number", linked.CommissionNumber),
				zap.Error(err))
		}
	}

	s.logger.Info("Transaction completed",
		zap.String("reference", t.Reference),
		zap.String("payment_reference", result.Reference))

	s.publishEvents(ctx, t)

	response := ToTransactionResponse(t)
	return &response, nil
}

func (s *Service) markCommissionPaid(ctx context.Context, c *commission.Commission) error {
	if err := c.MarkPaid(); err != nil {
		return err
	}
	if err := s.commissionRepo.SaveWithLock(ctx, c); err != nil {
		return err
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, c.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish commission events",
				zap.String("commission_number", c.CommissionNumber), zap.Error(err))
		}
		c.ClearDomainEvents()
	}
	return nil
}

// linkedCommission loads the commission settled by a commission-type
// transaction; nil for other transaction types.
func (s *Service) linkedCommission(ctx context.Context, t *settlement.Transaction) (*commission.Commission, error) {
	if t.Type != settlement.TypeCommission {
		return nil, nil
	}
	c, err := s.commissionRepo.FindByTransaction(ctx, t.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func commissionContext(c *commission.Commission) *settlement.CommissionContext {
	if c == nil {
		return nil
	}
	return &settlement.CommissionContext{
		CommissionID: c.ID.String(),
		Rate:         c.Rate.StringFixed(4),
		Amount:       c.CommissionAmount.StringFixed(2),
		OrderID:      c.OrderID.String(),
	}
}

// ValidateIntegrity runs every consistency check against a transaction and
// returns the collected findings instead of failing on the first one.
func (s *Service) ValidateIntegrity(ctx context.Context, transactionID uuid.UUID) (*IntegrityReport, error) {
	t, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{
		TransactionID: t.ID,
		Reference:     t.Reference,
		Errors:        []string{},
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		report.Errors = append(report.Errors, fmt.Sprintf("amount %s is not positive", t.Amount))
	}
	if err := s.bounds.Check(t.Amount); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}
	if t.CommissionPercent.IsNegative() {
		report.Errors = append(report.Errors, fmt.Sprintf("commission percentage %s is negative", t.CommissionPercent))
	}
	if t.VendorAmount.IsNegative() {
		report.Errors = append(report.Errors, fmt.Sprintf("vendor amount %s is negative", t.VendorAmount))
	}

	if exists, err := s.userReader.Exists(ctx, t.BuyerID); err != nil {
		return nil, err
	} else if !exists {
		report.Errors = append(report.Errors, fmt.Sprintf("buyer %s does not exist", t.BuyerID))
	}
	if t.VendorID != nil {
		if exists, err := s.userReader.Exists(ctx, *t.VendorID); err != nil {
			return nil, err
		} else if !exists {
			report.Errors = append(report.Errors, fmt.Sprintf("vendor %s does not exist", t.VendorID))
		}
	}

	linked, err := s.linkedCommission(ctx, t)
	if err != nil {
		return nil, err
	}
	if t.Type == settlement.TypeCommission {
		if linked == nil {
			report.Errors = append(report.Errors, "commission transaction has no linked commission")
		} else {
			if t.Amount.Sub(linked.VendorAmount).Abs().GreaterThan(amountTolerance) {
				report.Errors = append(report.Errors,
					fmt.Sprintf("amount %s does not match commission vendor amount %s", t.Amount, linked.VendorAmount))
			}
			expectedPercent := linked.Rate.Mul(decimal.NewFromInt(100))
			if !t.CommissionPercent.Equal(expectedPercent) {
				report.Errors = append(report.Errors,
					fmt.Sprintf("commission percentage %s does not match commission rate %s%%", t.CommissionPercent, expectedPercent))
			}
		}
	}

	if s.guard.Enabled() {
		if err := s.guard.Verify(t, commissionContext(linked)); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	report.Valid = len(report.Errors) == 0
	report.CheckedAt = time.Now()
	return report, nil
}

// GetHistory retrieves a paginated transaction history. Summary aggregates
// (total, average, per-method) cover the entire filtered set.
func (s *Service) GetHistory(ctx context.Context, filter TransactionListFilter) (*HistoryPage, error) {
	domainFilter := s.toDomainFilter(filter)

	transactions, err := s.txRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.txRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	totalAmount, err := s.txRepo.SumAmount(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.txRepo.TotalsByMethod(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	summary := HistorySummary{
		Count:         total,
		TotalAmount:   totalAmount,
		AverageAmount: decimal.Zero,
		ByMethod:      make(map[string]MethodSummary, len(byMethod)),
	}
	if total > 0 {
		summary.AverageAmount = totalAmount.Div(decimal.NewFromInt(total)).Round(2)
	}
	for method, totals := range byMethod {
		summary.ByMethod[method.String()] = MethodSummary{Count: totals.Count, Amount: totals.Amount}
	}

	page := shared.NewPaginated(ToTransactionResponses(transactions), total, domainFilter.Page, domainFilter.PageSize)
	return &HistoryPage{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Summary:    summary,
	}, nil
}

func (s *Service) toDomainFilter(filter TransactionListFilter) settlement.Filter {
	base := shared.DefaultFilter()
	if filter.Page > 0 {
		base.Page = filter.Page
	}
	if filter.PageSize > 0 {
		base.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		base.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		base.OrderDir = filter.OrderDir
	}
	return settlement.Filter{
		Filter:   base,
		UserID:   filter.UserID,
		Type:     filter.Type,
		Status:   filter.Status,
		Method:   filter.Method,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
}

// ProcessRefund creates and settles a refund for a completed transaction.
// Refunds carry no commission and settle synchronously; reconciling against an
// asynchronous gateway is a concern of the gateway integration, not this path.
func (s *Service) ProcessRefund(ctx context.Context, req ProcessRefundRequest) (*TransactionResponse, error) {
	original, err := s.txRepo.FindByID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	if !original.IsCompleted() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot refund transaction %s in %s status, expected COMPLETED",
				original.Reference, original.Status))
	}

	amount := original.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if amount.GreaterThan(original.Amount) {
		return nil, shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Refund amount %s exceeds the original amount %s", amount, original.Amount))
	}
	// The refund record is held to the same amount bounds as every other
	// transaction; a partial refund below the minimum would fail integrity
	// validation later.
	if err := s.bounds.Check(amount); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("refund of %s", original.Reference)
	if req.Reason != "" {
		notes += ": " + req.Reason
	}

	refund, err := settlement.NewTransaction(
		amount,
		original.PaymentMethod,
		settlement.TypeRefund,
		original.BuyerID,
		original.VendorID,
		decimal.Zero, // refunds are not commissionable
		decimal.Zero,
		notes,
	)
	if err != nil {
		return nil, err
	}
	refund.IntegrityHash = s.guard.ComputeHash(refund, nil)

	// Synchronous settlement: the refund is completed in the same operation
	if err := refund.MarkProcessing(); err != nil {
		return nil, err
	}
	if err := refund.Complete("REFUND-" + original.Reference); err != nil {
		return nil, err
	}
	refund.AddDomainEvent(settlement.NewRefundProcessedEvent(refund, original.Reference, req.Reason))

	if err := s.txRepo.Create(ctx, refund); err != nil {
		return nil, err
	}

	original.AppendNote(fmt.Sprintf("refunded %s by %s", amount, refund.Reference))
	if err := s.txRepo.Save(ctx, original); err != nil {
		s.logger.Warn("Failed to annotate original transaction after refund",
			zap.String("reference", original.Reference), zap.Error(err))
	}

	s.logger.Info("Refund processed",
		zap.String("reference", refund.Reference),
		zap.String("original_reference", original.Reference),
		zap.String("amount", amount.String()))

	s.publishEvents(ctx, refund)

	response := ToTransactionResponse(refund)
	return &response, nil
}

// publishEvents publishes the aggregate's pending domain events after a
// successful save. Event handling is best effort and never fails the operation.
func (s *Service) publishEvents(ctx context.Context, t *settlement.Transaction) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, t.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish transaction events",
			zap.String("reference", t.Reference), zap.Error(err))
	}
	t.ClearDomainEvents()
}
