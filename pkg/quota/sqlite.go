package quota

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteLedger implements Ledger against the authoritative SQLite store.
//
// The check and the increment are one conditional upsert: the statement
// creates the counter on the first request of the day, increments it only
// while the existing count is below the limit, and returns the new count
// when — and only when — a row was written. SQLite executes the statement
// atomically, and the shared single-connection pool (see package store)
// serializes writers, so two concurrent callers can never both pass the
// check at the same count.
type SQLiteLedger struct {
	db        *sql.DB
	admitStmt *sql.Stmt
	countStmt *sql.Stmt
}

// NewSQLiteLedger initializes the counter schema on db and prepares its
// statements. db remains owned by the caller.
func NewSQLiteLedger(db *sql.DB) (*SQLiteLedger, error) {
	l := &SQLiteLedger{db: db}

	schema := `
	CREATE TABLE IF NOT EXISTS quota_counters (
		key_id TEXT NOT NULL,
		day TEXT NOT NULL,
		request_count INTEGER NOT NULL CHECK (request_count >= 0),
		PRIMARY KEY (key_id, day)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize quota schema: %w", err)
	}

	var err error

	// The WHERE clause on DO UPDATE guards the existing row: when the
	// count has already reached the limit no row is written and RETURNING
	// yields nothing. The insert arm is reached only for the first request
	// of the day, which is always within a positive limit.
	l.admitStmt, err = db.Prepare(`
		INSERT INTO quota_counters (key_id, day, request_count)
		VALUES (?, ?, 1)
		ON CONFLICT (key_id, day) DO UPDATE SET
			request_count = request_count + 1
		WHERE request_count < ?
		RETURNING request_count
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare admit statement: %w", err)
	}

	l.countStmt, err = db.Prepare(`
		SELECT request_count FROM quota_counters WHERE key_id = ? AND day = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare count statement: %w", err)
	}

	return l, nil
}

// CheckAndIncrement atomically increments the (keyID, day) counter if the
// resulting count stays within limit.
func (l *SQLiteLedger) CheckAndIncrement(ctx context.Context, keyID string, day Day, limit int64) (decision *Decision, err error) {
	start := time.Now()
	defer func() { observeCheck("sqlite", decision, err, start) }()

	if limit < 1 {
		// A non-positive limit admits nothing; don't touch the store.
		return &Decision{Admitted: false, Count: 0}, nil
	}

	var count int64
	err = l.admitStmt.QueryRowContext(ctx, keyID, string(day), limit).Scan(&count)
	if err == sql.ErrNoRows {
		return &Decision{Admitted: false, Count: limit}, nil
	}
	if err != nil {
		return nil, NewStoreError("sqlite", "check_and_increment", err)
	}

	return &Decision{Admitted: true, Count: count}, nil
}

// Count returns the stored counter value for (keyID, day).
func (l *SQLiteLedger) Count(ctx context.Context, keyID string, day Day) (int64, error) {
	var count int64
	err := l.countStmt.QueryRowContext(ctx, keyID, string(day)).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, NewStoreError("sqlite", "count", err)
	}
	return count, nil
}
