package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"keygate-hq/keygate/pkg/credential"
)

// Registry coordinates key provisioning, disabling, and fingerprint
// resolution over a Store. It is the only component that ever sees raw
// credentials, and only for the duration of a provisioning call.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store:  store,
		logger: slog.Default().With("component", "registry"),
	}
}

// ProvisionClient creates a new client. Name and email are required.
func (r *Registry) ProvisionClient(ctx context.Context, name, email string) (*Client, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, ErrInvalidClient
	}

	client := &Client{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.store.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	r.logger.Info("client provisioned",
		"client_id", client.ID,
		"name", client.Name,
	)

	return client, nil
}

// ProvisionKey mints a new API key for an existing client and returns its
// identity along with the raw credential. The raw credential is returned
// exactly once and never stored; only the fingerprint persists.
//
// ProvisionKey is not idempotent: every call creates a distinct key, each
// independently subject to its own daily quota.
func (r *Registry) ProvisionKey(ctx context.Context, clientID string, dailyLimit int64) (*KeyIdentity, string, error) {
	if dailyLimit <= 0 {
		return nil, "", fmt.Errorf("%w: got %d", ErrInvalidLimit, dailyLimit)
	}

	if _, err := r.store.GetClient(ctx, clientID); err != nil {
		return nil, "", fmt.Errorf("failed to look up client %q: %w", clientID, err)
	}

	raw, err := credential.GenerateRaw()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key: %w", err)
	}

	fingerprint, err := credential.Fingerprint(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fingerprint key: %w", err)
	}

	key := &KeyIdentity{
		KeyID:       uuid.New().String(),
		ClientID:    clientID,
		Fingerprint: fingerprint,
		DailyLimit:  dailyLimit,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.store.CreateKey(ctx, key); err != nil {
		return nil, "", fmt.Errorf("failed to store key: %w", err)
	}

	// The raw key is never logged.
	r.logger.Info("API key provisioned",
		"key_id", key.KeyID,
		"client_id", key.ClientID,
		"daily_limit", key.DailyLimit,
	)

	return key, raw, nil
}

// Resolve returns the identity for a fingerprint. Callers must treat
// ErrKeyNotFound and an inactive identity identically as access denied;
// the admission gate distinguishes them only for logging.
func (r *Registry) Resolve(ctx context.Context, fingerprint string) (*KeyIdentity, error) {
	if fingerprint == "" {
		return nil, ErrKeyNotFound
	}
	return r.store.FindByFingerprint(ctx, fingerprint)
}

// DisableKey marks the key with the given fingerprint inactive. The change
// takes effect on the next admission check; in-flight decisions are not
// revoked, and the key's quota counters are left untouched.
func (r *Registry) DisableKey(ctx context.Context, fingerprint string) (*KeyIdentity, error) {
	key, err := r.store.DisableKey(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	r.logger.Info("API key disabled",
		"key_id", key.KeyID,
		"client_id", key.ClientID,
	)

	return key, nil
}

// ListClients returns all provisioned clients.
func (r *Registry) ListClients(ctx context.Context) ([]*Client, error) {
	return r.store.ListClients(ctx)
}

// ListKeys returns all keys owned by a client.
func (r *Registry) ListKeys(ctx context.Context, clientID string) ([]*KeyIdentity, error) {
	return r.store.ListKeys(ctx, clientID)
}

// GetClient returns a client by ID.
func (r *Registry) GetClient(ctx context.Context, id string) (*Client, error) {
	return r.store.GetClient(ctx, id)
}
