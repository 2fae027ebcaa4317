package settlement

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	vendorID := uuid.New()
	tx, err := NewTransaction(
		decimal.NewFromInt(95000),
		PaymentMethodBankTransfer,
		TypeCommission,
		uuid.New(),
		&vendorID,
		decimal.NewFromInt(5),
		decimal.NewFromInt(95000),
		"",
	)
	require.NoError(t, err)
	return tx
}

func TestNewTransaction(t *testing.T) {
	tx := newTestTransaction(t)

	assert.Equal(t, StatusPending, tx.Status)
	assert.True(t, strings.HasPrefix(tx.Reference, "TXN-"))
	assert.True(t, tx.IsPending())
	assert.Equal(t, 1, tx.Version)

	events := tx.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTransactionCreated, events[0].EventType())
}

func TestNewTransactionValidation(t *testing.T) {
	buyer := uuid.New()
	amount := decimal.NewFromInt(1000)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"zero amount", func() error {
			_, err := NewTransaction(decimal.Zero, PaymentMethodCash, TypeSale, buyer, nil, decimal.Zero, decimal.Zero, "")
			return err
		}},
		{"negative amount", func() error {
			_, err := NewTransaction(decimal.NewFromInt(-1), PaymentMethodCash, TypeSale, buyer, nil, decimal.Zero, decimal.Zero, "")
			return err
		}},
		{"invalid payment method", func() error {
			_, err := NewTransaction(amount, PaymentMethod("CHECK"), TypeSale, buyer, nil, decimal.Zero, decimal.Zero, "")
			return err
		}},
		{"invalid transaction type", func() error {
			_, err := NewTransaction(amount, PaymentMethodCash, TransactionType("TRANSFER"), buyer, nil, decimal.Zero, decimal.Zero, "")
			return err
		}},
		{"missing buyer", func() error {
			_, err := NewTransaction(amount, PaymentMethodCash, TypeSale, uuid.Nil, nil, decimal.Zero, decimal.Zero, "")
			return err
		}},
		{"negative commission percent", func() error {
			_, err := NewTransaction(amount, PaymentMethodCash, TypeSale, buyer, nil, decimal.NewFromInt(-1), decimal.Zero, "")
			return err
		}},
		{"negative vendor amount", func() error {
			_, err := NewTransaction(amount, PaymentMethodCash, TypeSale, buyer, nil, decimal.Zero, decimal.NewFromInt(-1), "")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	tx := newTestTransaction(t)
	tx.ClearDomainEvents()

	require.NoError(t, tx.MarkProcessing())
	assert.Equal(t, StatusProcessing, tx.Status)

	require.NoError(t, tx.Complete("PAY-abc123"))
	assert.Equal(t, StatusCompleted, tx.Status)
	assert.Equal(t, "PAY-abc123", tx.PaymentReference)
	assert.True(t, tx.IsCompleted())
	assert.True(t, tx.Status.IsTerminal())

	events := tx.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTransactionCompleted, events[0].EventType())

	// Completed transactions reject further transitions
	assert.Error(t, tx.MarkProcessing())
	assert.Error(t, tx.Fail("too late"))
	assert.Error(t, tx.Cancel("too late"))
}

func TestTransactionFailAndRetry(t *testing.T) {
	tx := newTestTransaction(t)
	require.NoError(t, tx.MarkProcessing())

	require.NoError(t, tx.Fail("gateway timeout"))
	assert.Equal(t, StatusFailed, tx.Status)
	assert.Contains(t, tx.Notes, "failed: gateway timeout")

	// A failed transaction may be retried from PENDING
	require.NoError(t, tx.Retry())
	assert.Equal(t, StatusPending, tx.Status)

	// Retry only applies to FAILED
	assert.Error(t, tx.Retry())
}

func TestTransactionCancel(t *testing.T) {
	tx := newTestTransaction(t)

	require.NoError(t, tx.Cancel("commission link failed"))
	assert.Equal(t, StatusCancelled, tx.Status)
	assert.Contains(t, tx.Notes, "cancelled: commission link failed")

	// Only PENDING transactions can be cancelled
	tx2 := newTestTransaction(t)
	require.NoError(t, tx2.MarkProcessing())
	assert.Error(t, tx2.Cancel("in flight"))
}

func TestStatusTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusCompleted, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestBoundsCheck(t *testing.T) {
	bounds := DefaultBounds()

	assert.NoError(t, bounds.Check(decimal.NewFromInt(100)))
	assert.NoError(t, bounds.Check(decimal.NewFromInt(10_000_000)))
	assert.NoError(t, bounds.Check(decimal.NewFromInt(50000)))

	assert.Error(t, bounds.Check(decimal.NewFromInt(99)))
	assert.Error(t, bounds.Check(decimal.NewFromInt(10_000_001)))
}

func TestPaymentMethodIsValid(t *testing.T) {
	valid := []PaymentMethod{
		PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodBankTransfer, PaymentMethodDigitalWallet,
	}
	for _, m := range valid {
		assert.True(t, m.IsValid(), "%s should be valid", m)
	}
	assert.False(t, PaymentMethod("CHECK").IsValid())
}

func TestTransactionTypeIsValid(t *testing.T) {
	valid := []TransactionType{TypeSale, TypeCommission, TypeRefund}
	for _, tt := range valid {
		assert.True(t, tt.IsValid(), "%s should be valid", tt)
	}
	assert.False(t, TransactionType("TRANSFER").IsValid())
}
