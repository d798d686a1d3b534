// Package cache stores intermediate stackplan results between runs.
//
// Parsed circuits and rendered artifacts are cached as opaque bytes under
// keys produced by a [Keyer]. Three backends are provided:
//
//   - [FileCache] for the CLI, one JSON entry per key under a directory
//   - [RedisCache] for the API server, shared across replicas
//   - [NullCache] when caching is disabled
//
// All backends are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// A missing or expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Entry lifetimes.
const (
	// TTLCircuit bounds how long a parsed circuit is reused. Keys already
	// include the input file fingerprint, so this only limits growth.
	TTLCircuit = 7 * 24 * time.Hour

	// TTLArtifact is the lifetime of rendered DOT and SVG output.
	TTLArtifact = 24 * time.Hour
)
