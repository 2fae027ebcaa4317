package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/shared"
)

// subscription pairs a handler with the event types it wants. An empty type
// set subscribes to everything, which is how the audit logger sees all events.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s *subscription) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// InMemoryEventBus delivers domain events synchronously to subscribed
// handlers, in subscription order. Publication never fails: an audit or
// webhook problem must not fail the financial operation that raised the
// event, so handler errors and panics are logged and swallowed.
type InMemoryEventBus struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger *zap.Logger
}

// NewInMemoryEventBus creates an empty bus.
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{logger: logger}
}

// Subscribe registers a handler. Explicit eventTypes win over the handler's
// own EventTypes(); no types at all means the handler receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	sub := &subscription{handler: handler}
	if len(eventTypes) > 0 {
		sub.types = make(map[string]struct{}, len(eventTypes))
		for _, et := range eventTypes {
			sub.types[et] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe drops every subscription held by the handler.
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	kept := b.subs[:0]
	for _, sub := range b.subs {
		if sub.handler != handler {
			kept = append(kept, sub)
		}
	}
	b.subs = kept
	b.mu.Unlock()

	b.logger.Debug("handler unsubscribed")
}

// Publish delivers each event to every matching subscription.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, event := range events {
		for _, sub := range subs {
			if !sub.wants(event.EventType()) {
				continue
			}
			if err := b.deliver(ctx, sub.handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err))
			}
		}
	}
	return nil
}

// Start marks the bus ready. The in-memory bus has no background machinery,
// the hook exists so the wiring matches a broker-backed implementation.
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.logger.Info("event bus started")
	return nil
}

// Stop shuts the bus down.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) deliver(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r))
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
