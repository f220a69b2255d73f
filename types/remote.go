package types

import (
	"context"
	"time"
)

// Remote is the authoritative, network-backed tier. Implementations apply
// their own key namespacing; callers always see logical (unprefixed) keys.
//
// Every method that touches the network takes a context. The cache does not
// retry remote failures internally; retry/backoff belongs to whatever
// resilience layer wraps the cache.
type Remote interface {

	// Get returns the payload for key, reporting whether it was present.
	// Absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the payload. A zero ttl means no expiry; otherwise the
	// store's native expiry applies.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Del removes the given keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int, error)

	// Scan walks the store's keyspace for keys matching the glob pattern,
	// invoking fn with pages of at most pageSize logical keys. Scanning is
	// cursor-based so memory stays bounded regardless of keyspace size.
	Scan(ctx context.Context, pattern string, pageSize int, fn func(keys []string) error) error

	// Tag adds key to each named tag's member set.
	Tag(ctx context.Context, key string, tags ...string) error

	// TagMembers returns the logical keys recorded under the tag.
	TagMembers(ctx context.Context, tag string) ([]string, error)

	// DeleteTag removes the tag's member set itself.
	DeleteTag(ctx context.Context, tag string) error

	// Close releases the underlying connection.
	Close() error
}
