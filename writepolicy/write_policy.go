/*
Package writepolicy decides how a cache write reaches the remote tier.

Write-through persists synchronously: the write is not complete until the
remote store acknowledged it, and a remote failure propagates to the
caller. Write-behind acknowledges locally and schedules a deferred remote
write after a fixed delay; failures are reported through an error hook,
never to the original caller.
*/
package writepolicy

import (
	"context"
	"time"
)

// Policy is the contract that all write policies follow. The cache does
// not care which policy is used; it hands over the serialized payload and
// the TTL and lets the policy decide when the remote tier sees it.
type Policy interface {

	// OnWrite is called for every cache write, after the local tiers were
	// already written.
	OnWrite(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Close flushes anything pending. Important for write-behind, where
	// queued writes would otherwise be lost on shutdown.
	Close() error
}
