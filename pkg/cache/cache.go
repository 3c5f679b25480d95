// Package cache memoises trial outcomes.
//
// A trial is a pure function of (mesh spec, target shape, trajectory,
// anchor, scorer offset), so its outcome can be stored under a content hash
// of those inputs and reused across runs. Three backends are provided:
//
//   - [FileCache]: JSON entries under a directory, for CLI use
//   - [RedisCache]: a shared Redis instance, for the HTTP API and batch runs
//   - [NullCache]: stores nothing
//
// Keys are produced by a [Keyer]; [NewScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TTLTrial is how long trial outcomes are kept. Outcomes never go stale
// because the key covers every input, so this only bounds disk use.
const TTLTrial = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GetJSON decodes the value stored under key into v. A value that fails to
// decode is reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
