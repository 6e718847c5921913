// Package cache stores pipeline results keyed by content hash.
//
// The pipeline produces the same Define-XML or workbook for the same input
// bytes and options, so results are cached under a key derived from both.
// Three backends implement [Cache]:
//
//   - [NullCache] stores nothing. It is the default when caching is disabled.
//   - [FileCache] stores JSON envelopes with an expiry under a directory,
//     which suits the CLI.
//   - [RedisCache] stores values in Redis with native expiry, which suits
//     several server instances sharing one cache.
//
// # Keys
//
// A [Keyer] turns inputs and options into cache keys. [DefaultKeyer] hashes
// the options together with the input hash so that any option change yields
// a different key:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Hash(input), cache.ArtifactKeyOpts{
//	    InputFormat: "xml",
//	    Format:      "xlsx",
//	})
//
// [ScopedKeyer] prefixes every key, which separates tenants or environments
// sharing one Redis instance.
//
// # Retries
//
// [Backoff.Retry] retries operations whose errors are wrapped with
// [Retryable]. Remote sources use it for transient network failures.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is reported by
// ok == false with a nil error; errors are reserved for backend failures.
type Cache interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they hold.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default expiry per entry kind.
const (
	// TTLSource bounds how long fetched remote inputs are reused.
	TTLSource = 10 * time.Minute

	// TTLReport bounds how long check reports are reused.
	TTLReport = 24 * time.Hour

	// TTLArtifact bounds how long serialized outputs are reused.
	TTLArtifact = 7 * 24 * time.Hour
)
