// Package kv stores diagram snapshots under string keys.
//
// A [Store] is a plain key-value store with optional per-entry expiry.
// Backends:
//   - [FileStore]: one JSON envelope per key on local disk, for the CLI
//   - [RedisStore]: Redis, for servers sharing sessions across instances
//   - [MongoStore]: a MongoDB collection with a TTL index
//   - [NullStore]: stores nothing, for --no-save runs and tests
//
// # Usage
//
//	store, err := kv.Open(ctx, kv.Config{Backend: kv.BackendFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.Set(ctx, "diagram:1234", data, 24*time.Hour); err != nil {
//	    return err
//	}
//	data, ok, err := store.Get(ctx, "diagram:1234")
//
// Backend errors carry the STORAGE_ERROR code from pkg/errors. Errors that
// are worth retrying (timeouts, dropped connections) are additionally
// wrapped with [Retryable]; [RetryWithBackoff] retries exactly those.
package kv

import (
	"context"
	"time"
)

// Store is the interface every backend implements.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent or its entry has expired.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl <= 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the live keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}
