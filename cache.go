/*
Package cache implements a multi-tier distributed cache: a small,
short-lived L1 and a larger L2 in-process, backed by an authoritative
Redis tier shared by all instances of the application.

Reads flow L1 -> L2 -> remote -> loader, promoting on the way back so the
hottest data ends up closest. Every mutation goes through all tiers and is
broadcast to the other instances over pub/sub, debounced and batched, so
their local tiers converge without polling. Consistency is best-effort,
not linearizable: concurrent operations may race to populate or evict the
same key and the last writer per tier wins.
*/
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/distributed-cache/codec"
	"github.com/krisalay/distributed-cache/config"
	"github.com/krisalay/distributed-cache/engine"
	"github.com/krisalay/distributed-cache/eviction"
	"github.com/krisalay/distributed-cache/expiration"
	"github.com/krisalay/distributed-cache/invalidation"
	"github.com/krisalay/distributed-cache/metrics"
	"github.com/krisalay/distributed-cache/refresh"
	"github.com/krisalay/distributed-cache/remote"
	"github.com/krisalay/distributed-cache/tier"
	"github.com/krisalay/distributed-cache/types"
	"github.com/krisalay/distributed-cache/writepolicy"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache: closed")

// TieredCache is the orchestrator that connects tiers, serialization,
// invalidation, write policies and metrics.
type TieredCache struct {
	cfg config.Config

	l1 *tier.Tier // nil when disabled
	l2 *tier.Tier // nil when disabled

	rem      types.Remote
	bus      *invalidation.Bus // nil without a transport
	pipeline *codec.Pipeline
	engine   *engine.Engine
	col      *metrics.Collector

	// sf dedupes concurrent loader calls for the same missing key.
	sf singleflight.Group

	log        *zap.Logger
	instanceID string
	closed     atomic.Bool
}

// New builds a cache from the configuration. The instance identity is
// generated here, once per cache, and used solely to suppress
// self-originated invalidation echoes.
func New(cfg config.Config, opts ...Option) (*TieredCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.instanceID == "" {
		o.instanceID = uuid.NewString()
	}

	cdc, err := codec.New(codec.Type(cfg.Serialization.Type))
	if err != nil {
		return nil, err
	}

	c := &TieredCache{
		cfg:        cfg,
		pipeline:   codec.NewPipeline(cdc, cfg.Serialization.Compress, cfg.Serialization.CompressionThreshold),
		col:        metrics.NewCollector(o.registerer, o.logger),
		log:        o.logger,
		instanceID: o.instanceID,
	}

	if c.l1, err = newLocalTier("l1", cfg.Layers.L1, true); err != nil {
		return nil, err
	}
	if c.l2, err = newLocalTier("l2", cfg.Layers.L2, false); err != nil {
		return nil, err
	}

	c.rem = o.remote
	if c.rem == nil {
		c.rem = remote.Dial(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	}

	transport := o.transport
	if transport == nil {
		if rs, ok := c.rem.(*remote.Store); ok {
			transport = invalidation.NewRedisTransport(rs.Client())
		}
	}

	var wp writepolicy.Policy
	if cfg.Consistency.WriteBehind && !cfg.Consistency.WriteThrough {
		wp = writepolicy.NewWriteBehind(
			c.rem,
			cfg.Consistency.WriteBehindDelay,
			cfg.Invalidation.QueueSize,
			func(error) { c.col.Error() },
			c.log,
		)
	} else {
		wp = writepolicy.NewWriteThrough(c.rem)
	}

	var hook refresh.Hook
	if o.refreshAhead > 0 && o.loader != nil {
		hook = refresh.NewAhead(o.refreshAhead, o.loader, func(ctx context.Context, key string, v any) {
			if err := c.Set(ctx, key, v, 0); err != nil {
				c.log.Warn("refresh-ahead set failed", zap.String("key", key), zap.Error(err))
			}
		}, c.log)
	}

	c.engine = engine.New(o.loader, wp, hook, c.col)

	if transport != nil {
		c.bus = invalidation.NewBus(transport, invalidation.Options{
			Channels:     cfg.Invalidation.Channels,
			InstanceID:   c.instanceID,
			Debounce:     cfg.Invalidation.Debounce,
			QueueSize:    cfg.Invalidation.QueueSize,
			OnInvalidate: c.dropLocal,
			OnError:      func(error) { c.col.Error() },
			Logger:       c.log,
		})
		if err := c.bus.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("cache: starting invalidation bus: %w", err)
		}
	}

	if cfg.SnapshotInterval > 0 {
		c.col.StartSnapshotLoop(cfg.SnapshotInterval, c.occupancy)
	}

	return c, nil
}

// newLocalTier builds one local tier from its layer config. capTTL marks
// the small tier whose configured TTL also caps explicit per-call TTLs.
func newLocalTier(name string, layer config.LayerConfig, capTTL bool) (*tier.Tier, error) {
	if !layer.Enabled {
		return nil, nil
	}
	pol, err := eviction.New(eviction.PolicyType(layer.Algorithm), layer.MaxSize)
	if err != nil {
		return nil, err
	}
	maxTTL := time.Duration(0)
	if capTTL {
		maxTTL = layer.TTL
	}
	return tier.New(name, layer.MaxSize, maxTTL, pol, &expiration.ExpireAfterWrite{TTL: layer.TTL}), nil
}

// InstanceID returns this cache's identity token.
func (c *TieredCache) InstanceID() string { return c.instanceID }

// Metrics returns the collector for snapshots and test assertions.
func (c *TieredCache) Metrics() *metrics.Collector { return c.col }

// Get retrieves the value for key, or (nil, nil) on a full miss.
func (c *TieredCache) Get(ctx context.Context, key string, opts ...GetOption) (any, error) {
	v, _, err := c.GetWithTier(ctx, key, opts...)
	return v, err
}

// GetWithTier is Get plus attribution of the tier that served the read.
//
// The lookup order is L1, L2, remote, loader. An L2 hit promotes the entry
// into L1; a remote hit populates L2 then L1 (L1 is smaller and should
// only hold the freshest promotions). A loader hit is written back through
// the standard Set path.
func (c *TieredCache) GetWithTier(ctx context.Context, key string, opts ...GetOption) (any, Tier, error) {
	if c.closed.Load() {
		return nil, TierNone, ErrClosed
	}
	start := time.Now()
	defer func() { c.col.Observe("get", time.Since(start)) }()

	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	// L1
	if c.l1 != nil {
		if ent, ok := c.l1.Get(key); ok {
			if v, err := c.decodeLocal(c.l1, ent); err == nil {
				c.col.Hit(metrics.TierL1)
				c.engine.OnRead(key, ent)
				return v, TierL1, nil
			}
		}
		c.col.Miss(metrics.TierL1)
	}

	// L2, promoting into L1 on a hit.
	if c.l2 != nil {
		if ent, ok := c.l2.Get(key); ok {
			if v, err := c.decodeLocal(c.l2, ent); err == nil {
				c.col.Hit(metrics.TierL2)
				if c.l1 != nil {
					c.l1.Set(ent.Clone())
				}
				c.engine.OnRead(key, ent)
				return v, TierL2, nil
			}
		}
		c.col.Miss(metrics.TierL2)
	}

	// Remote.
	if !o.skipRemote {
		payload, ok, err := c.rem.Get(ctx, key)
		if err != nil {
			c.col.Error()
			return nil, TierNone, err
		}
		if ok {
			var v any
			if err := c.pipeline.Decode(payload, &v); err != nil {
				c.col.Error()
				return nil, TierNone, fmt.Errorf("cache: decoding %q: %w", key, err)
			}
			c.col.Hit(metrics.TierRemote)
			c.populateLocal(key, payload)
			return v, TierRemote, nil
		}
		c.col.Miss(metrics.TierRemote)
	}

	// Loader (read-through).
	ld := o.loader
	if ld == nil {
		ld = c.engine.Loader
	}
	if ld != nil && c.cfg.Consistency.ReadThrough {
		v, err, _ := c.sf.Do(key, func() (any, error) {
			return ld.Load(ctx, key)
		})
		if err != nil {
			c.col.Error()
			return nil, TierNone, err
		}
		if v != nil {
			if err := c.Set(ctx, key, v, 0); err != nil {
				// The value itself is good; a failed write-back only
				// costs the next reader a reload.
				c.log.Warn("read-through set failed", zap.String("key", key), zap.Error(err))
			}
			return v, TierLoader, nil
		}
	}

	return nil, TierNone, nil
}

// decodeLocal decodes a local entry's payload. A corrupt entry is evicted
// and reported as a miss, never as an error: availability wins on the
// local fast path.
func (c *TieredCache) decodeLocal(t *tier.Tier, ent *types.Entry) (any, error) {
	var v any
	if err := c.pipeline.Decode(ent.Payload, &v); err != nil {
		c.log.Warn("corrupt local entry purged",
			zap.String("tier", t.Name()), zap.String("key", ent.Key), zap.Error(err))
		t.Delete(ent.Key)
		return nil, err
	}
	return v, nil
}

// populateLocal fills L2 then L1 with a payload fetched from the remote
// tier. Order matters: L2 first, then L1.
func (c *TieredCache) populateLocal(key string, payload []byte) {
	base := &types.Entry{Key: key, Payload: payload}
	if c.l2 != nil {
		c.l2.Set(base.Clone())
	}
	if c.l1 != nil {
		c.l1.Set(base.Clone())
	}
}

// Set serializes the value once and writes it to every tier: L1 with
// min(ttl, L1's cap), L2 with ttl or its default, and the remote tier
// with ttl or no expiry. The local tiers are written first as a
// best-effort fast path; the remote tier is the durability boundary, so a
// remote failure propagates after the locals were already written.
func (c *TieredCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	start := time.Now()
	defer func() { c.col.Observe("set", time.Since(start)) }()

	payload, err := c.pipeline.Encode(value)
	if err != nil {
		c.col.Error()
		return fmt.Errorf("cache: encoding %q: %w", key, err)
	}

	base := &types.Entry{Key: key, Payload: payload}
	if ttl > 0 {
		base.ExpiresAt = time.Now().Add(ttl)
	}
	if c.l1 != nil {
		c.l1.Set(base.Clone())
	}
	if c.l2 != nil {
		c.l2.Set(base.Clone())
	}

	c.col.Op("set")
	if err := c.engine.OnWrite(ctx, key, payload, ttl); err != nil {
		c.col.Error()
		return err
	}
	return nil
}

// Delete removes key from all tiers and broadcasts the invalidation
// unless suppressed. Used directly and as the terminal step of pattern
// and tag invalidation.
func (c *TieredCache) Delete(ctx context.Context, key string, opts ...DeleteOption) error {
	if c.closed.Load() {
		return ErrClosed
	}
	start := time.Now()
	defer func() { c.col.Observe("delete", time.Since(start)) }()

	o := deleteOptions{broadcast: true}
	for _, opt := range opts {
		opt(&o)
	}

	c.dropLocal([]string{key})
	if _, err := c.rem.Del(ctx, key); err != nil {
		c.col.Error()
		return err
	}

	c.col.Op("delete")
	if o.broadcast && c.bus != nil {
		c.bus.Broadcast([]string{key})
	}
	return nil
}

// Invalidate resolves the glob pattern against the remote keyspace with a
// bounded cursor scan, deletes the matches in fixed-size chunks with
// per-key broadcasts suppressed, then issues one broadcast covering the
// whole resolved set. Returns the number of keys invalidated.
func (c *TieredCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	var resolved []string
	err := c.rem.Scan(ctx, pattern, c.cfg.Invalidation.BatchSize, func(keys []string) error {
		if _, err := c.rem.Del(ctx, keys...); err != nil {
			return err
		}
		c.dropLocal(keys)
		resolved = append(resolved, keys...)
		return nil
	})
	if err != nil {
		c.col.Error()
		return len(resolved), err
	}

	c.col.Op("invalidate")
	if c.bus != nil {
		c.bus.Broadcast(resolved)
	}
	return len(resolved), nil
}

// Tag adds key to each named tag's member set in the remote tier. The set
// is created on first reference.
func (c *TieredCache) Tag(ctx context.Context, key string, tags ...string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.rem.Tag(ctx, key, tags...); err != nil {
		c.col.Error()
		return err
	}
	c.col.Op("tag")
	return nil
}

// InvalidateTag deletes every member key of the tag through the standard
// delete path (broadcast included), then deletes the tag set itself.
// Returns the number of member keys removed.
func (c *TieredCache) InvalidateTag(ctx context.Context, tag string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	members, err := c.rem.TagMembers(ctx, tag)
	if err != nil {
		c.col.Error()
		return 0, err
	}
	for _, key := range members {
		if err := c.Delete(ctx, key); err != nil {
			return 0, err
		}
	}
	if err := c.rem.DeleteTag(ctx, tag); err != nil {
		c.col.Error()
		return 0, err
	}

	c.col.Op("invalidate_tag")
	return len(members), nil
}

// Expire updates the TTL of an existing key in the local tiers, reporting
// whether any tier had it.
func (c *TieredCache) Expire(key string, ttl time.Duration) bool {
	ok := false
	if c.l1 != nil && c.l1.Expire(key, ttl) {
		ok = true
	}
	if c.l2 != nil && c.l2.Expire(key, ttl) {
		ok = true
	}
	return ok
}

// TTL returns the remaining time-to-live of a key from the freshest local
// tier holding it: -1 when the key has no TTL, -2 when no tier has it.
func (c *TieredCache) TTL(key string) time.Duration {
	if c.l1 != nil {
		if d := c.l1.TTL(key); d != -2 {
			return d
		}
	}
	if c.l2 != nil {
		return c.l2.TTL(key)
	}
	return -2
}

// dropLocal purges keys from the local tiers only. This is the receive
// path of the invalidation bus: the remote tier is already consistent,
// the peer just wrote it.
func (c *TieredCache) dropLocal(keys []string) {
	for _, key := range keys {
		if c.l1 != nil {
			c.l1.Delete(key)
		}
		if c.l2 != nil {
			c.l2.Delete(key)
		}
	}
}

func (c *TieredCache) occupancy() map[string]int {
	occ := make(map[string]int, 2)
	if c.l1 != nil {
		occ[metrics.TierL1] = c.l1.Len()
	}
	if c.l2 != nil {
		occ[metrics.TierL2] = c.l2.Len()
	}
	return occ
}

// Close shuts the cache down: the bus stops after flushing queued
// broadcasts, the write policy flushes pending writes, the snapshot loop
// stops and the remote connection is released.
func (c *TieredCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if c.bus != nil {
		errs = append(errs, c.bus.Close())
	}
	errs = append(errs, c.engine.Close())
	c.col.Close()
	errs = append(errs, c.rem.Close())
	return errors.Join(errs...)
}
