package usage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage implements Storage with an in-memory slice. Intended for
// tests and ephemeral runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a usage record.
func (s *MemoryStorage) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *record
	s.records = append(s.records, &r)
	return nil
}

// SummarizeByClient returns per-endpoint request counts for a client.
func (s *MemoryStorage) SummarizeByClient(ctx context.Context, clientID string) ([]*EndpointSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, record := range s.records {
		if record.ClientID == clientID {
			counts[record.Endpoint]++
		}
	}

	summaries := make([]*EndpointSummary, 0, len(counts))
	for endpoint, requests := range counts {
		summaries = append(summaries, &EndpointSummary{Endpoint: endpoint, Requests: requests})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Endpoint < summaries[j].Endpoint
	})
	return summaries, nil
}

// Count returns the total number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteBefore removes records older than cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, record := range s.records {
		if record.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return deleted, nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}
