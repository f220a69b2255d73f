/*
Package engine is the behavior layer of the cache. It decides:

- how values are loaded on a full miss (read-through)
- how writes are propagated to the remote tier (write policy)
- what extra work happens on reads (refresh hook)
- how events are recorded (metrics)

It does NOT store data, own tiers, or decide eviction order; that lives in
the tier package. The orchestrator composes both.
*/
package engine

import (
	"context"
	"time"

	"github.com/krisalay/distributed-cache/metrics"
	"github.com/krisalay/distributed-cache/refresh"
	"github.com/krisalay/distributed-cache/types"
	"github.com/krisalay/distributed-cache/writepolicy"
)

type Engine struct {

	// Loader is how the cache talks to the outside world when no tier has
	// the data. Nil disables read-through.
	Loader types.Loader

	// WritePolicy decides when the remote tier sees a write.
	WritePolicy writepolicy.Policy

	// Refresh is an optional hook run on every local-tier hit.
	Refresh refresh.Hook

	// Metrics records what the cache is doing. Never nil.
	Metrics *metrics.Collector
}

// New creates an Engine. A nil collector is replaced with a private one so
// the rest of the code never nil-checks metrics.
func New(loader types.Loader, wp writepolicy.Policy, hook refresh.Hook, m *metrics.Collector) *Engine {
	if m == nil {
		m = metrics.NewCollector(nil, nil)
	}
	return &Engine{
		Loader:      loader,
		WritePolicy: wp,
		Refresh:     hook,
		Metrics:     m,
	}
}

// OnRead runs read-path behavior for a local hit. Must stay cheap; it is
// on the hot path.
func (e *Engine) OnRead(key string, ent *types.Entry) {
	if e.Refresh != nil {
		e.Refresh.OnRead(key, ent)
	}
}

// OnWrite propagates a write to the remote tier per the configured policy.
// ttl is the caller's requested TTL (zero = no expiry), not the local
// tiers' capped deadline. Local tiers were already written when this is
// called; a write-through failure here is the caller's error.
func (e *Engine) OnWrite(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if e.WritePolicy == nil {
		return nil
	}
	return e.WritePolicy.OnWrite(ctx, key, payload, ttl)
}

// Load asks the backing source for a missing key.
func (e *Engine) Load(ctx context.Context, key string) (any, error) {
	if e.Loader == nil {
		return nil, nil
	}
	return e.Loader.Load(ctx, key)
}

// Close flushes the write policy.
func (e *Engine) Close() error {
	if e.WritePolicy != nil {
		return e.WritePolicy.Close()
	}
	return nil
}
