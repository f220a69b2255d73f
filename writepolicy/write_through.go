package writepolicy

import (
	"context"
	"time"

	"github.com/krisalay/distributed-cache/types"
)

// WriteThrough forwards every cache write to the remote tier immediately.
// The remote store is the durability boundary: its error is the caller's
// error.
type WriteThrough struct {
	remote types.Remote
}

// NewWriteThrough creates a write-through policy.
func NewWriteThrough(remote types.Remote) *WriteThrough {
	return &WriteThrough{remote: remote}
}

// OnWrite writes synchronously and propagates any remote failure.
func (w *WriteThrough) OnWrite(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return w.remote.Set(ctx, key, payload, ttl)
}

// Close has nothing to clean up; write-through keeps no state.
func (w *WriteThrough) Close() error { return nil }
