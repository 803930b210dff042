// Package cache holds the ephemeral secret cache backing the activation flow:
// one-time codes, resolved account payloads, and attempt counters, all bounded
// by a TTL. Expired entries are never returned even if not yet evicted.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or has expired
var ErrNotFound = errors.New("cache entry not found")

// SecretCache is a TTL-keyed store for short-lived verification state.
// Overwriting a key discards the old value immediately (last-write-wins).
type SecretCache interface {
	// Put stores value under key with an expiry
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value if present and not expired, else ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// GetDel atomically reads and consumes the value, else ErrNotFound.
	// Of two concurrent callers at most one receives the value.
	GetDel(ctx context.Context, key string) (string, error)

	// Delete removes keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error

	// IncrWithExpire increments a counter, starting its TTL window on first use
	IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
}
