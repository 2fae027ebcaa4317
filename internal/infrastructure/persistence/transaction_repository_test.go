package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/settlement"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

func setupTransactionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.TransactionModel{})
	require.NoError(t, err)

	return db
}

func newTestTransaction(t *testing.T, amount int64, method settlement.PaymentMethod, buyerID uuid.UUID, vendorID *uuid.UUID) *settlement.Transaction {
	t.Helper()
	tx, err := settlement.NewTransaction(
		decimal.NewFromInt(amount),
		method,
		settlement.TypeCommission,
		buyerID,
		vendorID,
		decimal.NewFromInt(5),
		decimal.NewFromInt(amount),
		"",
	)
	require.NoError(t, err)
	return tx
}

func TestGormTransactionRepository_CreateAndFind(t *testing.T) {
	db := setupTransactionTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	t.Run("round-trips a transaction", func(t *testing.T) {
		vendorID := uuid.New()
		tx := newTestTransaction(t, 95000, settlement.PaymentMethodBankTransfer, uuid.New(), &vendorID)
		tx.IntegrityHash = "abc123"

		require.NoError(t, repo.Create(ctx, tx))

		found, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.Reference, found.Reference)
		assert.Equal(t, settlement.StatusPending, found.Status)
		assert.Equal(t, "abc123", found.IntegrityHash)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(95000)))
	})

	t.Run("finds by reference", func(t *testing.T) {
		tx := newTestTransaction(t, 5000, settlement.PaymentMethodCash, uuid.New(), nil)
		require.NoError(t, repo.Create(ctx, tx))

		found, err := repo.FindByReference(ctx, tx.Reference)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, found.ID)
	})

	t.Run("returns ErrNotFound for unknown reference", func(t *testing.T) {
		_, err := repo.FindByReference(ctx, "TXN-unknown")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormTransactionRepository_SaveWithLock(t *testing.T) {
	db := setupTransactionTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	tx := newTestTransaction(t, 10000, settlement.PaymentMethodCreditCard, uuid.New(), nil)
	require.NoError(t, repo.Create(ctx, tx))

	require.NoError(t, tx.MarkProcessing())
	require.NoError(t, repo.SaveWithLock(ctx, tx))

	found, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusProcessing, found.Status)
	assert.Equal(t, 2, found.Version)

	stale := *tx
	stale.Version = 1
	err = repo.SaveWithLock(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormTransactionRepository_Aggregates(t *testing.T) {
	db := setupTransactionTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	vendorID := uuid.New()

	require.NoError(t, repo.Create(ctx, newTestTransaction(t, 10000, settlement.PaymentMethodCash, buyerID, nil)))
	require.NoError(t, repo.Create(ctx, newTestTransaction(t, 20000, settlement.PaymentMethodCash, buyerID, nil)))
	require.NoError(t, repo.Create(ctx, newTestTransaction(t, 30000, settlement.PaymentMethodCreditCard, uuid.New(), &vendorID)))

	t.Run("sums amounts", func(t *testing.T) {
		total, err := repo.SumAmount(ctx, settlement.Filter{})
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(60000)), "got %s", total)
	})

	t.Run("sums with method filter", func(t *testing.T) {
		method := settlement.PaymentMethodCash
		total, err := repo.SumAmount(ctx, settlement.Filter{Method: &method})
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(30000)), "got %s", total)
	})

	t.Run("groups totals by method", func(t *testing.T) {
		totals, err := repo.TotalsByMethod(ctx, settlement.Filter{})
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, int64(2), totals[settlement.PaymentMethodCash].Count)
		assert.True(t, totals[settlement.PaymentMethodCash].Amount.Equal(decimal.NewFromInt(30000)))
		assert.Equal(t, int64(1), totals[settlement.PaymentMethodCreditCard].Count)
	})

	t.Run("user filter matches buyer or vendor side", func(t *testing.T) {
		count, err := repo.Count(ctx, settlement.Filter{UserID: &buyerID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = repo.Count(ctx, settlement.Filter{UserID: &vendorID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("empty result sums to zero", func(t *testing.T) {
		status := settlement.StatusCompleted
		total, err := repo.SumAmount(ctx, settlement.Filter{Status: &status})
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}

// newMockTransactionRepository creates a repository backed by a mocked SQL connection
func newMockTransactionRepository(t *testing.T) (*GormTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTransactionRepository(gormDB), mock, mockDB
}

func TestGormTransactionRepository_FindByID_DBError(t *testing.T) {
	repo, mock, mockDB := newMockTransactionRepository(t)
	defer mockDB.Close()

	txID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "settlement_transactions" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(txID, 1).
		WillReturnError(sql.ErrConnDone)

	tx, err := repo.FindByID(context.Background(), txID)

	assert.Error(t, err)
	assert.Nil(t, tx)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
