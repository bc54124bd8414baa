package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrClientNotFound is returned when a client ID does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrKeyNotFound is returned when no key matches a fingerprint.
	ErrKeyNotFound = errors.New("API key not found")

	// ErrInvalidLimit is returned when a daily limit is not a positive integer.
	ErrInvalidLimit = errors.New("daily limit must be a positive integer")

	// ErrInvalidClient is returned when client attributes are missing.
	ErrInvalidClient = errors.New("client name and email are required")
)

// StorageError represents a failure in the registry's backing store.
type StorageError struct {
	Operation string // Operation that failed ("create_client", "resolve", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("registry storage error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(operation string, cause error) *StorageError {
	return &StorageError{
		Operation: operation,
		Cause:     cause,
	}
}
