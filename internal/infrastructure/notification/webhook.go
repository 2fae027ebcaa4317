package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/shared"
)

// WebhookNotifier delivers domain events to an external endpoint as JSON.
// It subscribes as a wildcard handler; the receiving side filters by event
// type. Delivery is best effort, a failed POST is reported so the idempotency
// wrapper keeps the event eligible for retry after the TTL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier targeting url
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// webhookPayload is the wire format of a delivered event
type webhookPayload struct {
	EventID       string      `json:"event_id"`
	EventType     string      `json:"event_type"`
	AggregateID   string      `json:"aggregate_id"`
	AggregateType string      `json:"aggregate_type"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Data          interface{} `json:"data"`
}

// EventTypes returns an empty slice: the notifier receives all events
func (n *WebhookNotifier) EventTypes() []string {
	return nil
}

// Handle posts the event to the configured endpoint
func (n *WebhookNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload := webhookPayload{
		EventID:       event.EventID().String(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID().String(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Data:          event,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.EventType())
	req.Header.Set("X-Event-ID", event.EventID().String())

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("event_id", payload.EventID),
			zap.String("event_type", payload.EventType),
			zap.Error(err),
		)
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Warn("webhook endpoint rejected event",
			zap.String("event_id", payload.EventID),
			zap.String("event_type", payload.EventType),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Debug("webhook delivered",
		zap.String("event_id", payload.EventID),
		zap.String("event_type", payload.EventType),
	)

	return nil
}

// Ensure WebhookNotifier implements shared.EventHandler
var _ shared.EventHandler = (*WebhookNotifier)(nil)
