// Package store opens and configures the authoritative SQLite database
// shared by the key registry and the quota ledger. The *sql.DB handle is
// owned by the process entry point and injected into each component.
package store
