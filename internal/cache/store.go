package cache

import (
	"context"
	"time"
)

// Store represents a shared TTL key-value interface used across the
// application. The chat deletion queue consumes the set operations and TTL
// inspection; rate limiting consumes IncrementWithTTL.
type Store interface {
	// Set stores a value with the supplied time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get retrieves a value by key. The boolean reports whether the key exists
	// and is unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// TTL reports the remaining time-to-live for a key. The boolean reports
	// whether the key is known to the store at all; implementations that keep
	// expired entries around return exists=true with a non-positive duration.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	// Delete removes one or more keys, ignoring missing keys.
	Delete(ctx context.Context, keys ...string) error

	// SetAdd adds members to an unordered set.
	SetAdd(ctx context.Context, key string, members ...string) error
	// SetRemove removes members from a set, ignoring absent members.
	SetRemove(ctx context.Context, key string, members ...string) error
	// SetMembers returns all members of a set.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// IncrementWithTTL increments a counter key, binding its lifetime to the
	// supplied window, and returns the count plus remaining window.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
