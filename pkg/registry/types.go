package registry

import (
	"context"
	"time"
)

// Client is an API consumer that owns zero or more keys.
type Client struct {
	// ID is the client's unique identifier (UUID).
	ID string `json:"id"`

	// Name is the client's display name.
	Name string `json:"name"`

	// Email is the client's contact address.
	Email string `json:"email"`

	// CreatedAt is when the client was provisioned.
	CreatedAt time.Time `json:"created_at"`
}

// KeyIdentity is the registry's view of a single API key. It never carries
// the raw credential, only the fingerprint.
type KeyIdentity struct {
	// KeyID is the key's unique identifier (UUID).
	KeyID string `json:"key_id"`

	// ClientID is the owning client.
	ClientID string `json:"client_id"`

	// Fingerprint is the one-way hash of the raw key, unique per key.
	Fingerprint string `json:"fingerprint"`

	// DailyLimit is the maximum number of admitted requests per day.
	// Always positive.
	DailyLimit int64 `json:"daily_limit"`

	// Active is false once the key has been disabled. Disabled keys are
	// never re-enabled and never deleted.
	Active bool `json:"active"`

	// CreatedAt is when the key was provisioned.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists clients and keys. Implementations must be safe for
// concurrent use, and every state change must be durable before the
// call returns.
type Store interface {
	// CreateClient persists a new client.
	CreateClient(ctx context.Context, client *Client) error

	// GetClient returns a client by ID. Returns ErrClientNotFound if absent.
	GetClient(ctx context.Context, id string) (*Client, error)

	// ListClients returns all clients ordered by creation time.
	ListClients(ctx context.Context) ([]*Client, error)

	// CreateKey persists a new key.
	CreateKey(ctx context.Context, key *KeyIdentity) error

	// FindByFingerprint returns the key with the given fingerprint.
	// Returns ErrKeyNotFound if absent.
	FindByFingerprint(ctx context.Context, fingerprint string) (*KeyIdentity, error)

	// DisableKey marks the key with the given fingerprint inactive and
	// returns its updated identity. Returns ErrKeyNotFound if absent.
	// Disabling an already-disabled key is a no-op.
	DisableKey(ctx context.Context, fingerprint string) (*KeyIdentity, error)

	// ListKeys returns all keys owned by a client.
	ListKeys(ctx context.Context, clientID string) ([]*KeyIdentity, error)
}
