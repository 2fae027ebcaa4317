// Package audit records every domain event as a structured log line,
// providing the append-only trail required for financial records.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/shared"
)

// EventLogger is a wildcard event handler that writes an audit line for
// every published domain event.
type EventLogger struct {
	logger *zap.Logger
}

// NewEventLogger creates an audit event logger
func NewEventLogger(logger *zap.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.Named("audit"),
	}
}

// EventTypes returns an empty slice: the audit log covers all events
func (l *EventLogger) EventTypes() []string {
	return nil
}

// Handle writes the audit log line. It never fails; losing an audit line
// must not block the financial operation that produced the event.
func (l *EventLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	l.logger.Info("domain event",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// Ensure EventLogger implements shared.EventHandler
var _ shared.EventHandler = (*EventLogger)(nil)
