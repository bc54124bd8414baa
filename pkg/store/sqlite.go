package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultBusyTimeout is how long SQLite waits for locks before failing.
const DefaultBusyTimeout = 5 * time.Second

// Open opens the SQLite database at path with WAL journaling and a busy
// timeout, and constrains the pool to a single connection (SQLite only
// supports one writer). The returned handle is safe for concurrent use
// and should be closed by the owner at shutdown.
func Open(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, int(busyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; serializing through one connection also makes the
	// quota ledger's conditional upsert a true serialization point.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
