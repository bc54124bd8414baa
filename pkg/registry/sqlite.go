package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore implements Store on an injected SQLite handle. The handle is
// shared with the quota ledger and owned by the process entry point.
type SQLiteStore struct {
	db *sql.DB

	createClientStmt *sql.Stmt
	getClientStmt    *sql.Stmt
	listClientsStmt  *sql.Stmt
	createKeyStmt    *sql.Stmt
	findKeyStmt      *sql.Stmt
	disableKeyStmt   *sql.Stmt
	listKeysStmt     *sql.Stmt
}

// NewSQLiteStore initializes the registry schema on db and prepares its
// statements. db remains owned by the caller.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare registry statements: %w", err)
	}

	return s, nil
}

// initSchema creates the clients and api_keys tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL REFERENCES clients(id),
		daily_limit INTEGER NOT NULL CHECK (daily_limit > 0),
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_api_keys_client ON api_keys(client_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.createClientStmt, err = s.db.Prepare(`
		INSERT INTO clients (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare create client statement: %w", err)
	}

	s.getClientStmt, err = s.db.Prepare(`
		SELECT id, name, email, created_at FROM clients WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get client statement: %w", err)
	}

	s.listClientsStmt, err = s.db.Prepare(`
		SELECT id, name, email, created_at FROM clients ORDER BY created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list clients statement: %w", err)
	}

	s.createKeyStmt, err = s.db.Prepare(`
		INSERT INTO api_keys (id, fingerprint, client_id, daily_limit, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare create key statement: %w", err)
	}

	s.findKeyStmt, err = s.db.Prepare(`
		SELECT id, fingerprint, client_id, daily_limit, is_active, created_at
		FROM api_keys
		WHERE fingerprint = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare find key statement: %w", err)
	}

	s.disableKeyStmt, err = s.db.Prepare(`
		UPDATE api_keys SET is_active = 0 WHERE fingerprint = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare disable key statement: %w", err)
	}

	s.listKeysStmt, err = s.db.Prepare(`
		SELECT id, fingerprint, client_id, daily_limit, is_active, created_at
		FROM api_keys
		WHERE client_id = ?
		ORDER BY created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list keys statement: %w", err)
	}

	return nil
}

// CreateClient persists a new client.
func (s *SQLiteStore) CreateClient(ctx context.Context, client *Client) error {
	_, err := s.createClientStmt.ExecContext(ctx,
		client.ID, client.Name, client.Email, client.CreatedAt.Unix())
	if err != nil {
		return NewStorageError("create_client", err)
	}
	return nil
}

// GetClient returns a client by ID.
func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*Client, error) {
	var client Client
	var createdAt int64

	err := s.getClientStmt.QueryRowContext(ctx, id).Scan(
		&client.ID, &client.Name, &client.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, NewStorageError("get_client", err)
	}

	client.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &client, nil
}

// ListClients returns all clients ordered by creation time.
func (s *SQLiteStore) ListClients(ctx context.Context) ([]*Client, error) {
	rows, err := s.listClientsStmt.QueryContext(ctx)
	if err != nil {
		return nil, NewStorageError("list_clients", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		var client Client
		var createdAt int64
		if err := rows.Scan(&client.ID, &client.Name, &client.Email, &createdAt); err != nil {
			return nil, NewStorageError("list_clients", err)
		}
		client.CreatedAt = time.Unix(createdAt, 0).UTC()
		clients = append(clients, &client)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("list_clients", err)
	}

	return clients, nil
}

// CreateKey persists a new key.
func (s *SQLiteStore) CreateKey(ctx context.Context, key *KeyIdentity) error {
	_, err := s.createKeyStmt.ExecContext(ctx,
		key.KeyID, key.Fingerprint, key.ClientID, key.DailyLimit,
		boolToInt(key.Active), key.CreatedAt.Unix())
	if err != nil {
		return NewStorageError("create_key", err)
	}
	return nil
}

// FindByFingerprint returns the key with the given fingerprint.
func (s *SQLiteStore) FindByFingerprint(ctx context.Context, fingerprint string) (*KeyIdentity, error) {
	return s.scanKey(s.findKeyStmt.QueryRowContext(ctx, fingerprint), "find_key")
}

// DisableKey marks the key with the given fingerprint inactive.
func (s *SQLiteStore) DisableKey(ctx context.Context, fingerprint string) (*KeyIdentity, error) {
	result, err := s.disableKeyStmt.ExecContext(ctx, fingerprint)
	if err != nil {
		return nil, NewStorageError("disable_key", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, NewStorageError("disable_key", err)
	}
	if affected == 0 {
		return nil, ErrKeyNotFound
	}

	return s.FindByFingerprint(ctx, fingerprint)
}

// ListKeys returns all keys owned by a client.
func (s *SQLiteStore) ListKeys(ctx context.Context, clientID string) ([]*KeyIdentity, error) {
	rows, err := s.listKeysStmt.QueryContext(ctx, clientID)
	if err != nil {
		return nil, NewStorageError("list_keys", err)
	}
	defer rows.Close()

	var keys []*KeyIdentity
	for rows.Next() {
		var key KeyIdentity
		var active int
		var createdAt int64
		if err := rows.Scan(&key.KeyID, &key.Fingerprint, &key.ClientID,
			&key.DailyLimit, &active, &createdAt); err != nil {
			return nil, NewStorageError("list_keys", err)
		}
		key.Active = active != 0
		key.CreatedAt = time.Unix(createdAt, 0).UTC()
		keys = append(keys, &key)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("list_keys", err)
	}

	return keys, nil
}

// scanKey scans a single key row.
func (s *SQLiteStore) scanKey(row *sql.Row, operation string) (*KeyIdentity, error) {
	var key KeyIdentity
	var active int
	var createdAt int64

	err := row.Scan(&key.KeyID, &key.Fingerprint, &key.ClientID,
		&key.DailyLimit, &active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, NewStorageError(operation, err)
	}

	key.Active = active != 0
	key.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &key, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
