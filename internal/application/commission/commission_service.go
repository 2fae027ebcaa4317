package commission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
)

// BatchOptions tunes batch commission calculation
type BatchOptions struct {
	// ConcurrencyThreshold is the batch size at or above which orders are
	// processed concurrently instead of sequentially
	ConcurrencyThreshold int
	// MaxWorkers bounds the number of concurrent order calculations
	MaxWorkers int
}

// DefaultBatchOptions returns the default batch tuning
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		ConcurrencyThreshold: 10,
		MaxWorkers:           4,
	}
}

// Service handles commission business operations
type Service struct {
	commissionRepo commission.Repository
	orderReader    ordering.OrderReader
	rates          *commission.RateTable
	batchOpts      BatchOptions
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new commission Service
func NewService(
	commissionRepo commission.Repository,
	orderReader ordering.OrderReader,
	rates *commission.RateTable,
	batchOpts BatchOptions,
	logger *zap.Logger,
) *Service {
	if batchOpts.ConcurrencyThreshold <= 0 {
		batchOpts.ConcurrencyThreshold = DefaultBatchOptions().ConcurrencyThreshold
	}
	if batchOpts.MaxWorkers <= 0 {
		batchOpts.MaxWorkers = DefaultBatchOptions().MaxWorkers
	}
	return &Service{
		commissionRepo: commissionRepo,
		orderReader:    orderReader,
		rates:          rates,
		batchOpts:      batchOpts,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CalculateForOrder calculates and persists the commission for an order.
// The operation is idempotent: if a commission already exists for the order it
// is returned unchanged, whether found up front or created concurrently.
func (s *Service) CalculateForOrder(ctx context.Context, req CalculateCommissionRequest) (*CommissionResponse, error) {
	if existing, err := s.commissionRepo.FindByOrder(ctx, req.OrderID); err == nil {
		response := ToCommissionResponse(existing)
		return &response, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	order, err := s.orderReader.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.IsCommissionable() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Order %s must be confirmed or delivered to calculate commission (current: %s)",
				order.OrderNumber, order.Status))
	}
	if len(order.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER",
			fmt.Sprintf("Order %s has no line items", order.OrderNumber))
	}

	// Single-vendor orders only: the commission is attributed to the vendor of
	// the first line item. Multi-vendor orders would need a per-item split.
	vendorID := order.PrimaryVendorID()
	if vendorID == nil {
		return nil, shared.NewDomainError("VENDOR_NOT_FOUND",
			fmt.Sprintf("Order %s has no vendor to attribute the commission to", order.OrderNumber))
	}

	commissionType := req.Type
	if commissionType == "" {
		commissionType = commission.TypeStandard
	}

	rate, method, err := s.resolveRate(commissionType, req.CustomRate)
	if err != nil {
		return nil, err
	}

	c, err := commission.NewCommission(
		order.ID, *vendorID, order.TotalAmount, rate, commissionType, method, order.Currency)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		c.SetNotes(req.Notes)
	}

	if err := s.commissionRepo.Create(ctx, c); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the race against a concurrent calculation for the same
			// order; the winner's record is the canonical one.
			winner, findErr := s.commissionRepo.FindByOrder(ctx, req.OrderID)
			if findErr != nil {
				return nil, findErr
			}
			response := ToCommissionResponse(winner)
			return &response, nil
		}
		s.logger.Error("Failed to persist commission",
			zap.String("order_id", req.OrderID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("COMMISSION_SAVE_FAILED",
			fmt.Sprintf("Failed to save commission for order %s", req.OrderID))
	}

	s.logger.Info("Commission calculated",
		zap.String("commission_number", c.CommissionNumber),
		zap.String("order_id", c.OrderID.String()),
		zap.String("vendor_id", c.VendorID.String()),
		zap.String("commission_amount", c.CommissionAmount.String()))

	s.publishEvents(ctx, c)

	response := ToCommissionResponse(c)
	return &response, nil
}

// resolveRate picks the applicable rate: a custom rate when supplied by an
// operator, otherwise the configured rate for the commission type.
func (s *Service) resolveRate(commissionType commission.Type, customRate *decimal.Decimal) (decimal.Decimal, commission.CalculationMethod, error) {
	if customRate != nil {
		if customRate.IsNegative() || customRate.GreaterThan(decimal.NewFromInt(1)) {
			return decimal.Zero, "", shared.NewDomainError("INVALID_RATE",
				"Custom commission rate must be between 0 and 1")
		}
		return *customRate, commission.CalculationManual, nil
	}
	rate, err := s.rates.Resolve(commissionType)
	if err != nil {
		return decimal.Zero, "", err
	}
	return rate, commission.CalculationAutomatic, nil
}

// GetByID retrieves a commission by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*CommissionResponse, error) {
	c, err := s.commissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCommissionResponse(c)
	return &response, nil
}

// GetByOrder retrieves the commission calculated for an order
func (s *Service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*CommissionResponse, error) {
	c, err := s.commissionRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToCommissionResponse(c)
	return &response, nil
}

// Approve approves a pending commission for payout
func (s *Service) Approve(ctx context.Context, commissionID uuid.UUID, req ApproveCommissionRequest) (*CommissionResponse, error) {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}

	if err := c.Approve(req.ApproverID, req.Notes); err != nil {
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Commission approved",
		zap.String("commission_number", c.CommissionNumber),
		zap.String("approved_by", req.ApproverID.String()))

	s.publishEvents(ctx, c)

	response := ToCommissionResponse(c)
	return &response, nil
}

// Dispute marks an approved commission as disputed
func (s *Service) Dispute(ctx context.Context, commissionID uuid.UUID, req DisputeCommissionRequest) (*CommissionResponse, error) {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}

	if err := c.Dispute(req.Reason); err != nil {
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)

	response := ToCommissionResponse(c)
	return &response, nil
}

// ResolveDispute returns a disputed commission to the approved state
func (s *Service) ResolveDispute(ctx context.Context, commissionID uuid.UUID, req ResolveDisputeRequest) (*CommissionResponse, error) {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}

	if err := c.ResolveDispute(req.Resolution); err != nil {
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)

	response := ToCommissionResponse(c)
	return &response, nil
}

// Cancel cancels a pending commission
func (s *Service) Cancel(ctx context.Context, commissionID uuid.UUID, req CancelCommissionRequest) (*CommissionResponse, error) {
	c, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}

	if err := c.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)

	response := ToCommissionResponse(c)
	return &response, nil
}

// List retrieves commissions with filtering and pagination
func (s *Service) List(ctx context.Context, filter CommissionListFilter) (*shared.Paginated[CommissionResponse], error) {
	domainFilter := s.toDomainFilter(filter)

	commissions, err := s.commissionRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.commissionRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToCommissionResponses(commissions), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

func (s *Service) toDomainFilter(filter CommissionListFilter) commission.Filter {
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
	return commission.Filter{
		Filter:   base,
		VendorID: filter.VendorID,
		OrderID:  filter.OrderID,
		Status:   filter.Status,
		Type:     filter.Type,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
}

// GetVendorEarnings builds an earnings report for a vendor over an optional
// date range and status filter. Totals are computed over the full filtered set,
// not a page.
func (s *Service) GetVendorEarnings(ctx context.Context, vendorID uuid.UUID, filter CommissionListFilter) (*VendorEarningsReport, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}

	domainFilter := s.toDomainFilter(filter)
	domainFilter.VendorID = &vendorID
	// Report aggregates need the complete filtered set
	domainFilter.Page = 1
	domainFilter.PageSize = 0

	commissions, err := s.commissionRepo.FindByVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, err
	}

	report := &VendorEarningsReport{
		VendorID:             vendorID,
		FromDate:             filter.FromDate,
		ToDate:               filter.ToDate,
		CommissionCount:      int64(len(commissions)),
		TotalOrderAmount:     decimal.Zero,
		TotalCommission:      decimal.Zero,
		TotalVendorEarnings:  decimal.Zero,
		PaidVendorEarnings:   decimal.Zero,
		PendingVendorEarning: decimal.Zero,
		AverageRate:          decimal.Zero,
		Currency:             commission.DefaultCurrency,
		ByStatus:             make(map[string]StatusBreakdown),
	}

	rateSum := decimal.Zero
	for i := range commissions {
		c := &commissions[i]

		// Monetary totals only make sense in a single currency; a mixed set
		// must be reported per currency by the caller, not silently summed.
		if i == 0 {
			report.Currency = c.Currency
		} else if c.Currency != report.Currency {
			return nil, shared.NewDomainError("MIXED_CURRENCIES",
				fmt.Sprintf("Cannot aggregate earnings across currencies %s and %s, filter by currency",
					report.Currency, c.Currency))
		}

		report.TotalOrderAmount = report.TotalOrderAmount.Add(c.OrderAmount)
		report.TotalCommission = report.TotalCommission.Add(c.CommissionAmount)
		report.TotalVendorEarnings = report.TotalVendorEarnings.Add(c.VendorAmount)
		rateSum = rateSum.Add(c.Rate)

		switch c.Status {
		case commission.StatusPaid:
			report.PaidVendorEarnings = report.PaidVendorEarnings.Add(c.VendorAmount)
		case commission.StatusPending, commission.StatusApproved:
			report.PendingVendorEarning = report.PendingVendorEarning.Add(c.VendorAmount)
		}

		breakdown := report.ByStatus[c.Status.String()]
		breakdown.Count++
		breakdown.CommissionAmount = breakdown.CommissionAmount.Add(c.CommissionAmount)
		breakdown.VendorAmount = breakdown.VendorAmount.Add(c.VendorAmount)
		report.ByStatus[c.Status.String()] = breakdown
	}

	if len(commissions) > 0 {
		report.AverageRate = rateSum.Div(decimal.NewFromInt(int64(len(commissions)))).Round(4)
	}

	return report, nil
}

// ProcessOrdersBatch calculates commissions for a set of orders. Failures are
// isolated per order; one bad order never aborts the batch. Small batches run
// sequentially, larger ones fan out across a bounded worker pool.
func (s *Service) ProcessOrdersBatch(ctx context.Context, req BatchCalculateRequest) (*BatchResult, error) {
	if len(req.OrderIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID list cannot be empty")
	}

	if len(req.OrderIDs) < s.batchOpts.ConcurrencyThreshold {
		return s.processBatchSequential(ctx, req), nil
	}
	return s.processBatchConcurrent(ctx, req), nil
}

func (s *Service) processBatchSequential(ctx context.Context, req BatchCalculateRequest) *BatchResult {
	result := &BatchResult{}
	for _, orderID := range req.OrderIDs {
		response, err := s.CalculateForOrder(ctx, CalculateCommissionRequest{OrderID: orderID, Type: req.Type})
		if err != nil {
			result.Failed = append(result.Failed, toBatchFailure(orderID, err))
			continue
		}
		result.Succeeded = append(result.Succeeded, *response)
	}
	return result
}

func (s *Service) processBatchConcurrent(ctx context.Context, req BatchCalculateRequest) *BatchResult {
	type outcome struct {
		index    int
		response *CommissionResponse
		err      error
	}

	outcomes := make([]outcome, len(req.OrderIDs))
	sem := make(chan struct{}, s.batchOpts.MaxWorkers)
	var wg sync.WaitGroup

	for i, orderID := range req.OrderIDs {
		wg.Add(1)
		go func(i int, orderID uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			response, err := s.CalculateForOrder(ctx, CalculateCommissionRequest{OrderID: orderID, Type: req.Type})
			outcomes[i] = outcome{index: i, response: response, err: err}
		}(i, orderID)
	}
	wg.Wait()

	result := &BatchResult{}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, toBatchFailure(req.OrderIDs[i], o.err))
			continue
		}
		result.Succeeded = append(result.Succeeded, *o.response)
	}
	return result
}

func toBatchFailure(orderID uuid.UUID, err error) BatchOrderFailure {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return BatchOrderFailure{OrderID: orderID, Code: domainErr.Code, Message: domainErr.Message}
	}
	return BatchOrderFailure{OrderID: orderID, Code: "INTERNAL_ERROR", Message: err.Error()}
}

// publishEvents publishes the aggregate's pending domain events after a
// successful save. Event handling is best effort and never fails the operation.
func (s *Service) publishEvents(ctx context.Context, c *commission.Commission) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, c.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish commission events",
			zap.String("commission_number", c.CommissionNumber),
			zap.Error(err))
	}
	c.ClearDomainEvents()
}
