// Package id generates opaque record identifiers.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID generates a URL-safe identifier from a random UUIDv4 encoded as base32.
// The identifier is 26 characters long, lowercase, and contains no padding.
func NewID() (string, error) {
	raw, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(raw[:])), nil
}

// Sequence returns a generator that yields the given ids in order and then fails.
// Tests use it to pin generated identifiers.
func Sequence(ids ...string) func() (string, error) {
	next := 0
	return func() (string, error) {
		if next >= len(ids) {
			return "", fmt.Errorf("id sequence exhausted after %d ids", len(ids))
		}
		value := ids[next]
		next++
		return value, nil
	}
}
