package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
)

// sweepInterval is how many writes go by between sweeps of expired entries.
const sweepInterval = 256

// InMemoryIdempotencyStore tracks processed event IDs in a plain map. It backs
// webhook deduplication on single-instance deployments and in tests; clustered
// deployments use the Redis store. Expired entries are swept lazily on write
// rather than by a background goroutine.
type InMemoryIdempotencyStore struct {
	mu         sync.RWMutex
	deadlines  map[string]time.Time
	writeCount int
}

// NewInMemoryIdempotencyStore creates an empty store.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		deadlines: make(map[string]time.Time),
	}
}

// MarkProcessed records an event ID with a TTL. It reports true when the ID
// was newly recorded and false when a live record already exists, which is
// the check-and-set the idempotent handler wrapper relies on.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.deadlines[eventID]; ok && now.Before(deadline) {
		return false, nil
	}

	s.deadlines[eventID] = now.Add(ttl)

	s.writeCount++
	if s.writeCount%sweepInterval == 0 {
		s.sweep(now)
	}

	return true, nil
}

// IsProcessed reports whether a live record exists for the event ID.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, ok := s.deadlines[eventID]
	return ok && time.Now().Before(deadline), nil
}

// Close satisfies shared.IdempotencyStore; the map needs no teardown.
func (s *InMemoryIdempotencyStore) Close() error {
	return nil
}

// Size returns the number of records, live or expired.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deadlines)
}

// sweep drops expired records. Caller holds the write lock.
func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	for eventID, deadline := range s.deadlines {
		if now.After(deadline) {
			delete(s.deadlines, eventID)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
