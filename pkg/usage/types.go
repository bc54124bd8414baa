package usage

import (
	"context"
	"time"
)

// Record is one admitted request. Records are never mutated or deleted
// except by retention pruning.
type Record struct {
	// ID is the record's unique identifier (UUID).
	ID string

	// KeyID is the API key the request was admitted under.
	KeyID string

	// ClientID is the key's owning client, denormalized at record time so
	// reporting does not depend on the registry.
	ClientID string

	// Endpoint is the request path.
	Endpoint string

	// StatusCode is the response status returned to the caller.
	StatusCode int

	// RecordedAt is when the request was handled.
	RecordedAt time.Time
}

// EndpointSummary is one row of a per-client usage report.
type EndpointSummary struct {
	// Endpoint is the request path.
	Endpoint string `json:"endpoint"`

	// Requests is the number of recorded requests to the endpoint.
	Requests int64 `json:"requests"`
}

// Storage persists usage records. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store appends a usage record.
	Store(ctx context.Context, record *Record) error

	// SummarizeByClient returns per-endpoint request counts for a client,
	// ordered by endpoint. Returns an empty slice for unknown clients.
	SummarizeByClient(ctx context.Context, clientID string) ([]*EndpointSummary, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records older than cutoff and returns how many
	// were deleted. Used by retention pruning only.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases any resources held by the storage.
	Close() error
}
