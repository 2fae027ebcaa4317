package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/settlement"
)

// SimulatedProcessor implements settlement.PaymentProcessor against a fake
// gateway. It succeeds with a configurable probability, which lets failure
// paths be exercised without a real payment provider. Not for production use.
type SimulatedProcessor struct {
	successRate float64
	logger      *zap.Logger

	mu  sync.Mutex
	rng *mathrand.Rand
}

// SimulatedProcessorOption is a functional option for SimulatedProcessor
type SimulatedProcessorOption func(*SimulatedProcessor)

// WithRandSource sets the random source, used by tests for determinism
func WithRandSource(src mathrand.Source) SimulatedProcessorOption {
	return func(p *SimulatedProcessor) {
		p.rng = mathrand.New(src)
	}
}

// NewSimulatedProcessor creates a simulated processor. successRate is the
// probability in [0,1] that a payment attempt succeeds; 1 means always.
func NewSimulatedProcessor(successRate float64, logger *zap.Logger, opts ...SimulatedProcessorOption) *SimulatedProcessor {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}

	p := &SimulatedProcessor{
		successRate: successRate,
		logger:      logger,
		rng:         mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process simulates submitting the transaction to a payment gateway
func (p *SimulatedProcessor) Process(ctx context.Context, t *settlement.Transaction) (settlement.ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return settlement.ProcessResult{}, err
	}

	p.mu.Lock()
	roll := p.rng.Float64()
	p.mu.Unlock()

	if roll >= p.successRate {
		p.logger.Info("simulated payment declined",
			zap.String("reference", t.Reference),
			zap.String("amount", t.Amount.String()),
		)
		return settlement.ProcessResult{
			Success: false,
			Message: "payment declined by gateway",
		}, nil
	}

	reference := newGatewayReference()
	p.logger.Info("simulated payment accepted",
		zap.String("reference", t.Reference),
		zap.String("payment_reference", reference),
		zap.String("amount", t.Amount.String()),
	)

	return settlement.ProcessResult{
		Success:   true,
		Reference: reference,
		Message:   "approved",
	}, nil
}

// newGatewayReference generates a fake gateway reference, PAY-<random>
func newGatewayReference() string {
	suffix := make([]byte, 6)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("PAY-%s", hex.EncodeToString(suffix))
}

// Ensure SimulatedProcessor implements settlement.PaymentProcessor
var _ settlement.PaymentProcessor = (*SimulatedProcessor)(nil)
