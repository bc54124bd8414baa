package registry

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store with an in-memory map. State is lost on
// restart; intended for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string]*Client
	keys    map[string]*KeyIdentity // by fingerprint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients: make(map[string]*Client),
		keys:    make(map[string]*KeyIdentity),
	}
}

// CreateClient persists a new client.
func (s *MemoryStore) CreateClient(ctx context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *client
	s.clients[client.ID] = &c
	return nil
}

// GetClient returns a client by ID.
func (s *MemoryStore) GetClient(ctx context.Context, id string) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	c := *client
	return &c, nil
}

// ListClients returns all clients ordered by creation time.
func (s *MemoryStore) ListClients(ctx context.Context) ([]*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		c := *client
		clients = append(clients, &c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.Before(clients[j].CreatedAt)
	})
	return clients, nil
}

// CreateKey persists a new key.
func (s *MemoryStore) CreateKey(ctx context.Context, key *KeyIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := *key
	s.keys[key.Fingerprint] = &k
	return nil
}

// FindByFingerprint returns the key with the given fingerprint.
func (s *MemoryStore) FindByFingerprint(ctx context.Context, fingerprint string) (*KeyIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[fingerprint]
	if !ok {
		return nil, ErrKeyNotFound
	}
	k := *key
	return &k, nil
}

// DisableKey marks the key with the given fingerprint inactive.
func (s *MemoryStore) DisableKey(ctx context.Context, fingerprint string) (*KeyIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[fingerprint]
	if !ok {
		return nil, ErrKeyNotFound
	}
	key.Active = false
	k := *key
	return &k, nil
}

// ListKeys returns all keys owned by a client.
func (s *MemoryStore) ListKeys(ctx context.Context, clientID string) ([]*KeyIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []*KeyIdentity
	for _, key := range s.keys {
		if key.ClientID == clientID {
			k := *key
			keys = append(keys, &k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.Before(keys[j].CreatedAt)
	})
	return keys, nil
}
