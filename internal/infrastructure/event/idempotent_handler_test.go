package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/cache"
)

func newIdempotencyFixture(t *testing.T, inner shared.EventHandler, opts ...IdempotentHandlerOption) *IdempotentHandler {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return NewIdempotentHandler(inner, store, zap.NewNop(), opts...)
}

func TestIdempotentHandlerSkipsDuplicates(t *testing.T) {
	inner := &recordingHandler{}
	handler := newIdempotencyFixture(t, inner)

	event := newTestEvent("CommissionCalculated")
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Equal(t, 1, inner.received())

	stats := handler.GetMetrics().Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(1), stats.EventsDuplicate)
}

func TestIdempotentHandlerDistinctEvents(t *testing.T) {
	inner := &recordingHandler{}
	handler := newIdempotencyFixture(t, inner)

	require.NoError(t, handler.Handle(context.Background(), newTestEvent("CommissionCalculated")))
	require.NoError(t, handler.Handle(context.Background(), newTestEvent("CommissionCalculated")))

	assert.Equal(t, 2, inner.received())
}

func TestIdempotentHandlerPropagatesFailures(t *testing.T) {
	inner := &recordingHandler{err: errors.New("webhook endpoint down")}
	handler := newIdempotencyFixture(t, inner)

	err := handler.Handle(context.Background(), newTestEvent("TransactionCompleted"))
	assert.Error(t, err)
	assert.Equal(t, int64(1), handler.GetMetrics().Stats().EventsFailed)
}

func TestIdempotentHandlerDisabledPassesThrough(t *testing.T) {
	inner := &recordingHandler{}
	handler := newIdempotencyFixture(t, inner,
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false, TTL: time.Hour}))

	event := newTestEvent("CommissionCalculated")
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Equal(t, 2, inner.received())
}

func TestIdempotentHandlerExposesInnerEventTypes(t *testing.T) {
	inner := &recordingHandler{types: []string{"TransactionCreated", "TransactionCompleted"}}
	handler := newIdempotencyFixture(t, inner)

	assert.Equal(t, inner.EventTypes(), handler.EventTypes())
}
