// Package cache provides the key-value cache collaborator used by the
// analytics read-through layer. Entries are opaque serialized payloads with a
// per-key expiry; the cache backend owns passive TTL eviction.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or its entry has expired.
// Any other error from Get means the cache backend is unreachable.
var ErrMiss = errors.New("cache: key not found")

// Cache is a key-value store with per-key expiry.
//
// Get and Set are each individually atomic; callers must not rely on
// compound read-modify-write atomicity across them.
type Cache interface {
	// Get returns the stored payload, or ErrMiss if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the payload under key, overwriting unconditionally.
	// A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Absent keys are a no-op.
	Delete(ctx context.Context, keys ...string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
