// Package cache provides the byte-oriented key-value stores that back
// depweight's persistent metrics cache.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default).
//   - [RedisCache]: a shared Redis instance, for CI fleets and the API server.
//   - [NullCache]: stores nothing; used with --no-cache.
//
// Values are opaque bytes. Callers own serialization and choose keys with a
// [Keyer], so two depweight versions that count lines differently never read
// each other's entries.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with optional per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// TTLLOC is the expiry for line-count entries. Registry sources never change
// for a given version, so entries only expire to bound cache growth.
const TTLLOC = 30 * 24 * time.Hour
