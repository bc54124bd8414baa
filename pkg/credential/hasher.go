package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// RawKeyBytes is the number of random bytes in a generated raw key.
// 32 bytes gives 256 bits of entropy, well above the 128-bit floor
// required to make guessing attacks impractical.
const RawKeyBytes = 32

// FingerprintLength is the length in characters of a fingerprint
// (hex-encoded SHA-256 digest).
const FingerprintLength = sha256.Size * 2

// ErrEmptyCredential is returned when a raw credential is empty or
// contains only whitespace.
var ErrEmptyCredential = errors.New("credential is empty")

// Fingerprint returns the hex-encoded SHA-256 digest of the raw key.
// The transform is deterministic and one-way: the raw key cannot be
// recovered from the fingerprint.
func Fingerprint(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyCredential
	}

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:]), nil
}

// GenerateRaw returns a new cryptographically random raw API key,
// hex-encoded. The caller is responsible for delivering it to the client;
// it is never stored in recoverable form.
func GenerateRaw() (string, error) {
	buf := make([]byte, RawKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
