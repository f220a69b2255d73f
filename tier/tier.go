/*
Package tier implements one bounded, process-local cache layer.

A Tier owns:
- a Store holding the actual entries
- an eviction policy deciding what to drop when the tier is full
- an expiration strategy deciding when entries are too old

Tiers never touch the network and never return errors: anything wrong with
a local entry is treated as a miss. Expiry is lazy — an expired entry is
purged by the read that discovers it.
*/
package tier

import (
	"sync"
	"time"

	"github.com/krisalay/distributed-cache/eviction"
	"github.com/krisalay/distributed-cache/expiration"
	"github.com/krisalay/distributed-cache/types"
)

type Tier struct {
	name     string
	capacity int

	// maxTTL caps the TTL of every incoming entry. The small L1 tier uses
	// this so promotions never outlive min(ttl, maxTTL). Zero means no cap.
	maxTTL time.Duration

	store  Store
	policy eviction.Policy
	exp    expiration.Strategy

	// mu serializes all mutations. Eviction bookkeeping mutates on reads
	// too (LRU reorders, LFU counts), so reads take the lock as well.
	mu sync.Mutex
}

// New creates a tier. The expiration strategy may be nil, in which case
// only explicit per-entry TTLs apply.
func New(name string, capacity int, maxTTL time.Duration, pol eviction.Policy, exp expiration.Strategy) *Tier {
	if exp == nil {
		exp = &expiration.ExpireAfterWrite{}
	}
	return &Tier{
		name:     name,
		capacity: capacity,
		maxTTL:   maxTTL,
		store:    NewMapStore(),
		policy:   pol,
		exp:      exp,
	}
}

// Name returns the tier's label (used for metrics attribution).
func (t *Tier) Name() string { return t.name }

// Get returns the entry for key if present and not expired. An expired
// entry is purged and reported as a miss. The returned entry is owned by
// the tier; callers must Clone it before inserting it anywhere else.
func (t *Tier) Get(key string) (*types.Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ent, ok := t.store.Get(key)
	if !ok {
		return nil, false
	}

	now := time.Now()
	if t.exp.IsExpired(ent, now) {
		t.store.Delete(key)
		t.policy.Remove(key)
		return nil, false
	}

	t.exp.OnAccess(ent, now)
	t.policy.OnGet(key)
	return ent, true
}

// Set inserts or replaces the entry, evicting per policy when the tier is
// over capacity. The tier's maxTTL cap is applied here.
func (t *Tier) Set(ent *types.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.exp.OnWrite(ent, now)

	if t.maxTTL > 0 {
		capped := now.Add(t.maxTTL)
		if ent.ExpiresAt.IsZero() || ent.ExpiresAt.After(capped) {
			ent.ExpiresAt = capped
		}
	}

	t.store.Put(ent.Key, ent)
	if victim, ok := t.policy.OnPut(ent.Key); ok && victim != ent.Key {
		t.store.Delete(victim)
	}
}

// Delete removes the key. Removing a missing key is a no-op.
func (t *Tier) Delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.Delete(key)
	t.policy.Remove(key)
}

// Expire sets or updates the TTL of an existing key, reporting whether the
// key was present.
func (t *Tier) Expire(key string, ttl time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ent, ok := t.store.Get(key)
	if !ok {
		return false
	}
	ent.ExpiresAt = time.Now().Add(ttl)
	return true
}

// TTL returns the remaining time-to-live of a key, with Redis-compatible
// semantics: -1 when the key has no TTL, -2 when it does not exist or is
// already expired.
func (t *Tier) TTL(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	ent, ok := t.store.Get(key)
	if !ok {
		return -2
	}
	if ent.ExpiresAt.IsZero() {
		return -1
	}
	d := time.Until(ent.ExpiresAt)
	if d < 0 {
		return -2
	}
	return d
}

// Len returns the current number of entries.
func (t *Tier) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Size()
}
