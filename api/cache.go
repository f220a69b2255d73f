package api

import (
	"context"
	"time"

	cache "github.com/krisalay/distributed-cache"
)

/*
Cache is the public contract of the multi-tier cache. Everything behind it
(tier composition, eviction, serialization, invalidation fan-out,
concurrency) stays hidden; external collaborators such as HTTP caching
middleware or a circuit-breaker wrapper compose around these methods
without knowing the internals.

All methods that can touch the network take a context and return plain
errors, so a resilience layer can wrap any call with retry or breaker
policy of its own. The cache itself never retries.
*/
type Cache interface {

	/*
		Get retrieves the value for key.

		BEHAVIOR:
		---------
		1. L1 hit  -> return immediately
		2. L2 hit  -> promote into L1, return
		3. Remote  -> populate L2 then L1, return
		4. Loader  -> if read-through is enabled and a loader exists,
		              load, write back through Set, return
		5. Otherwise (nil, nil): a miss is not an error
	*/
	Get(ctx context.Context, key string, opts ...cache.GetOption) (any, error)

	/*
		GetWithTier is Get plus attribution of the tier that served the
		read, for callers that surface cache status (e.g. an X-Cache
		response header).
	*/
	GetWithTier(ctx context.Context, key string, opts ...cache.GetOption) (any, cache.Tier, error)

	/*
		Set stores the value in every tier.

		- The value is serialized once.
		- L1 receives min(ttl, L1's configured cap); L2 receives ttl or
		  its default; the remote tier receives ttl or no expiry.
		- Local tiers are written first and never fail; a remote failure
		  propagates afterwards (the remote tier is the durability
		  boundary).
		- ttl 0 means "use per-tier defaults, no remote expiry".
	*/
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	/*
		Delete removes key from all tiers including the remote store,
		then broadcasts the invalidation to the other instances unless
		suppressed with WithoutBroadcast. Deleting a missing key is not
		an error.
	*/
	Delete(ctx context.Context, key string, opts ...cache.DeleteOption) error

	/*
		Invalidate deletes every remote key matching the glob pattern.
		The keyspace is walked with a bounded cursor scan, deletions run
		in fixed-size chunks with per-key broadcasts suppressed, and one
		merged broadcast covers the whole resolved set at the end.
		Returns the number of keys invalidated.
	*/
	Invalidate(ctx context.Context, pattern string) (int, error)

	/*
		Tag records key as a member of each named tag's set in the
		remote tier, creating the set on first reference.
	*/
	Tag(ctx context.Context, key string, tags ...string) error

	/*
		InvalidateTag deletes every member key of the tag via the
		standard delete path (broadcast included), then deletes the tag
		set itself. Returns the number of member keys removed.
	*/
	InvalidateTag(ctx context.Context, tag string) (int, error)

	/*
		Expire sets or updates the TTL of an existing key in the local
		tiers, reporting whether any tier had it.
	*/
	Expire(key string, ttl time.Duration) bool

	/*
		TTL returns the remaining time-to-live with Redis-compatible
		semantics: > 0 remaining duration, -1 key without TTL, -2 key
		absent or already expired.
	*/
	TTL(key string) time.Duration

	/*
		Close shuts the cache down gracefully: queued invalidation
		broadcasts and pending write-behind writes are flushed first.
	*/
	Close() error
}

// The orchestrator must keep satisfying the public contract.
var _ Cache = (*cache.TieredCache)(nil)
