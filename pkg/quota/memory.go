package quota

import (
	"context"
	"sync"
	"time"
)

// counterKey identifies one quota counter.
type counterKey struct {
	keyID string
	day   Day
}

// MemoryLedger implements Ledger with an in-process map. A single mutex is
// the serialization point that makes check-then-increment indivisible.
// State is lost on restart; intended for tests and ephemeral runs.
type MemoryLedger struct {
	mu     sync.Mutex
	counts map[counterKey]int64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		counts: make(map[counterKey]int64),
	}
}

// CheckAndIncrement atomically increments the (keyID, day) counter if the
// resulting count stays within limit.
func (l *MemoryLedger) CheckAndIncrement(ctx context.Context, keyID string, day Day, limit int64) (decision *Decision, err error) {
	start := time.Now()
	defer func() { observeCheck("memory", decision, err, start) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	k := counterKey{keyID: keyID, day: day}
	current := l.counts[k]
	if current >= limit {
		return &Decision{Admitted: false, Count: current}, nil
	}

	l.counts[k] = current + 1
	return &Decision{Admitted: true, Count: current + 1}, nil
}

// Count returns the stored counter value for (keyID, day).
func (l *MemoryLedger) Count(ctx context.Context, keyID string, day Day) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[counterKey{keyID: keyID, day: day}], nil
}
