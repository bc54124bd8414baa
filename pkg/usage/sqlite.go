package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for the SQLite usage storage.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/usage.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStorage implements Storage using SQLite. Unlike the registry and
// quota stores, usage storage owns its database file: the audit log is a
// separate artifact from the authoritative admission state.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	storeStmt     *sql.Stmt
	summarizeStmt *sql.Stmt
	countStmt     *sql.Stmt
	deleteStmt    *sql.Stmt
}

// NewSQLiteStorage creates a new SQLite usage storage backend.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "usage.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("usage storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the schema and pragmas.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		key_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_client ON usage_records(client_id);
	CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError("sqlite", "init_schema", err)
	}

	return s.prepareStatements()
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStorage) prepareStatements() error {
	var err error

	s.storeStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (id, key_id, client_id, endpoint, status_code, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_store", err)
	}

	s.summarizeStmt, err = s.db.Prepare(`
		SELECT endpoint, COUNT(*)
		FROM usage_records
		WHERE client_id = ?
		GROUP BY endpoint
		ORDER BY endpoint
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_summarize", err)
	}

	s.countStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM usage_records`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_count", err)
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM usage_records WHERE recorded_at < ?`)
	if err != nil {
		return NewStorageError("sqlite", "prepare_delete", err)
	}

	return nil
}

// Store appends a usage record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	_, err := s.storeStmt.ExecContext(ctx,
		record.ID, record.KeyID, record.ClientID, record.Endpoint,
		record.StatusCode, record.RecordedAt.Unix())
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// SummarizeByClient returns per-endpoint request counts for a client.
func (s *SQLiteStorage) SummarizeByClient(ctx context.Context, clientID string) ([]*EndpointSummary, error) {
	rows, err := s.summarizeStmt.QueryContext(ctx, clientID)
	if err != nil {
		return nil, NewStorageError("sqlite", "summarize", err)
	}
	defer rows.Close()

	summaries := []*EndpointSummary{}
	for rows.Next() {
		var summary EndpointSummary
		if err := rows.Scan(&summary.Endpoint, &summary.Requests); err != nil {
			return nil, NewStorageError("sqlite", "summarize", err)
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "summarize", err)
	}

	return summaries, nil
}

// Count returns the total number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.countStmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// DeleteBefore removes records older than cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.deleteStmt.ExecContext(ctx, cutoff.Unix())
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_before", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_before", err)
	}
	return deleted, nil
}

// Close releases the database handle.
func (s *SQLiteStorage) Close() error {
	for _, stmt := range []*sql.Stmt{s.storeStmt, s.summarizeStmt, s.countStmt, s.deleteStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
