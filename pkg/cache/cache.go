// Package cache provides byte caches for fetched image resources and
// rendered previews.
//
// Three backends implement [Cache]:
//   - [NullCache]: never stores anything (tests, --no-cache)
//   - [FileCache]: JSON entry files under a directory (CLI)
//   - [RedisCache]: shared cache for the HTTP API
//
// Keys are produced by a [Keyer] so that every backend uses the same key
// layout: "resource:<sha256 of uri>" for fetched bytes and
// "preview:<side>:<w>x<h>:q<quality>:<digest>" for rendered previews.
// [ScopedKeyer] prefixes keys for isolation between consumers.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key. The bool reports a hit; a miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	// ResourceTTL bounds how long fetched image bytes are reused.
	ResourceTTL = 24 * time.Hour

	// PreviewTTL bounds how long rendered off-screen previews are reused.
	PreviewTTL = time.Hour
)

// =============================================================================
// NullCache
// =============================================================================

// NullCache never stores anything. It backs --no-cache and tests.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
