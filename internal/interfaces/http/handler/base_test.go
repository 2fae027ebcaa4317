package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	commissionapp "github.com/marketplace/backend/internal/application/commission"
	settlementapp "github.com/marketplace/backend/internal/application/settlement"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/settlement"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// memCommissionRepo is a map-backed commission repository for handler tests
type memCommissionRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*commission.Commission
}

func newMemCommissionRepo() *memCommissionRepo {
	return &memCommissionRepo{byID: make(map[uuid.UUID]*commission.Commission)}
}

func (m *memCommissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memCommissionRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*commission.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.OrderID == orderID {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memCommissionRepo) FindByNumber(ctx context.Context, commissionNumber string) (*commission.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.CommissionNumber == commissionNumber {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memCommissionRepo) FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*commission.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.TransactionID != nil && *c.TransactionID == transactionID {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memCommissionRepo) FindAll(ctx context.Context, filter commission.Filter) ([]commission.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []commission.Commission
	for _, c := range m.byID {
		if filter.VendorID != nil && c.VendorID != *filter.VendorID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *memCommissionRepo) FindByVendor(ctx context.Context, vendorID uuid.UUID, filter commission.Filter) ([]commission.Commission, error) {
	filter.VendorID = &vendorID
	return m.FindAll(ctx, filter)
}

func (m *memCommissionRepo) Count(ctx context.Context, filter commission.Filter) (int64, error) {
	all, _ := m.FindAll(ctx, filter)
	return int64(len(all)), nil
}

func (m *memCommissionRepo) Create(ctx context.Context, c *commission.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.OrderID == c.OrderID {
			return shared.ErrAlreadyExists
		}
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memCommissionRepo) Save(ctx context.Context, c *commission.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[c.ID] = c
	return nil
}

func (m *memCommissionRepo) SaveWithLock(ctx context.Context, c *commission.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.IncrementVersion()
	m.byID[c.ID] = c
	return nil
}

// memTransactionRepo is a map-backed transaction repository for handler tests
type memTransactionRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*settlement.Transaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{byID: make(map[uuid.UUID]*settlement.Transaction)}
}

func (m *memTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byID[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memTransactionRepo) FindByReference(ctx context.Context, reference string) (*settlement.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.Reference == reference {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memTransactionRepo) FindAll(ctx context.Context, filter settlement.Filter) ([]settlement.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []settlement.Transaction
	for _, t := range m.byID {
		result = append(result, *t)
	}
	return result, nil
}

func (m *memTransactionRepo) Count(ctx context.Context, filter settlement.Filter) (int64, error) {
	all, _ := m.FindAll(ctx, filter)
	return int64(len(all)), nil
}

func (m *memTransactionRepo) SumAmount(ctx context.Context, filter settlement.Filter) (decimal.Decimal, error) {
	all, _ := m.FindAll(ctx, filter)
	sum := decimal.Zero
	for _, t := range all {
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (m *memTransactionRepo) TotalsByMethod(ctx context.Context, filter settlement.Filter) (map[settlement.PaymentMethod]settlement.MethodTotal, error) {
	all, _ := m.FindAll(ctx, filter)
	totals := make(map[settlement.PaymentMethod]settlement.MethodTotal)
	for _, t := range all {
		mt := totals[t.PaymentMethod]
		mt.Count++
		mt.Amount = mt.Amount.Add(t.Amount)
		totals[t.PaymentMethod] = mt
	}
	return totals, nil
}

func (m *memTransactionRepo) Create(ctx context.Context, t *settlement.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID] = t
	return nil
}

func (m *memTransactionRepo) Save(ctx context.Context, t *settlement.Transaction) error {
	return m.Create(ctx, t)
}

func (m *memTransactionRepo) SaveWithLock(ctx context.Context, t *settlement.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.IncrementVersion()
	m.byID[t.ID] = t
	return nil
}

type memOrderReader struct {
	orders map[uuid.UUID]*ordering.Order
}

func (m *memOrderReader) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

type memUserReader struct {
	users map[uuid.UUID]*identity.User
}

func (m *memUserReader) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memUserReader) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

type alwaysApproveProcessor struct{}

func (alwaysApproveProcessor) Process(ctx context.Context, t *settlement.Transaction) (settlement.ProcessResult, error) {
	return settlement.ProcessResult{Success: true, Reference: "PAY-test"}, nil
}

// testEnv wires concrete services onto in-memory repositories behind a real
// gin engine
type testEnv struct {
	engine      *gin.Engine
	commissions *memCommissionRepo
	txs         *memTransactionRepo
	orders      *memOrderReader
	users       *memUserReader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		commissions: newMemCommissionRepo(),
		txs:         newMemTransactionRepo(),
		orders:      &memOrderReader{orders: make(map[uuid.UUID]*ordering.Order)},
		users:       &memUserReader{users: make(map[uuid.UUID]*identity.User)},
	}

	guard, err := settlement.NewIntegrityGuard("handler-test-secret-0123456789abcdef00", true)
	require.NoError(t, err)

	commissionService := commissionapp.NewService(
		env.commissions, env.orders, commission.NewRateTable(),
		commissionapp.DefaultBatchOptions(), zap.NewNop())
	settlementService := settlementapp.NewService(
		env.txs, env.commissions, env.orders, env.users,
		alwaysApproveProcessor{}, guard, settlement.DefaultBounds(), zap.NewNop())

	env.engine = gin.New()
	router.NewRouter(env.engine).
		Register(NewCommissionHandler(commissionService)).
		Register(NewTransactionHandler(settlementService)).
		Setup()

	return env
}

// seedOrder adds a confirmed single-vendor order with its buyer and vendor
func (env *testEnv) seedOrder(t *testing.T, amount string) *ordering.Order {
	t.Helper()

	vendor := &identity.User{ID: uuid.New(), Email: "vendor@example.com", Role: identity.RoleVendor, Active: true}
	buyer := &identity.User{ID: uuid.New(), Email: "buyer@example.com", Role: identity.RoleBuyer, Active: true}
	env.users.users[vendor.ID] = vendor
	env.users.users[buyer.ID] = buyer

	total := decimal.RequireFromString(amount)
	order := &ordering.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-HANDLER-001",
		Status:      ordering.StatusConfirmed,
		TotalAmount: total,
		Currency:    "COP",
		BuyerID:     buyer.ID,
		Items: []ordering.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), VendorID: &vendor.ID, Quantity: 1, UnitPrice: total, Subtotal: total},
		},
	}
	env.orders.orders[order.ID] = order
	return order
}

// seedApprovedCommission creates an approved commission for a fresh order
func (env *testEnv) seedApprovedCommission(t *testing.T, amount string) *commission.Commission {
	t.Helper()

	order := env.seedOrder(t, amount)
	c, err := commission.NewCommission(
		order.ID, *order.Items[0].VendorID, order.TotalAmount,
		decimal.RequireFromString("0.05"),
		commission.TypeStandard, commission.CalculationAutomatic, "COP")
	require.NoError(t, err)
	require.NoError(t, c.Approve(uuid.New(), ""))
	c.ClearDomainEvents()
	require.NoError(t, env.commissions.Create(context.Background(), c))
	return c
}

func (env *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

// apiResponse mirrors the response envelope for decoding in assertions
type apiResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// listResponse is the envelope variant whose data is an array
type listResponse struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Meta    *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

func decodeListResponse(t *testing.T, w *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
