package eviction

/*
This file defines how a tier decides what to remove when it runs out of
space.

Policy is the contract that all eviction strategies follow. The tier does
not care how eviction works internally; it only calls these methods. A
policy tracks keys and ordering metadata — the tier's store keeps the
actual entries — and each policy instance is bounded by the capacity it
was created with.
*/

import "fmt"

// Policy is the interface that all eviction strategies must follow.
type Policy interface {

	// OnGet is called whenever a key is read from the tier.
	// Recency-based strategies use this to mark the key as fresh;
	// frequency-based strategies count the access.
	OnGet(key string)

	// OnPut is called whenever a key is written to the tier. If admitting
	// the key pushes the policy past its capacity, OnPut returns the key
	// the tier must evict to make room.
	OnPut(key string) (evicted string, ok bool)

	// Remove is called when a key is explicitly removed (not evicted), so
	// the policy can drop its bookkeeping for the key.
	Remove(key string)

	// Len returns how many keys the policy is currently tracking.
	Len() int
}

// PolicyType identifies a supported eviction strategy.
type PolicyType string

const (
	// LRU (Least Recently Used) evicts the key that has not been accessed
	// for the longest time.
	LRU PolicyType = "lru"

	// LFU (Least Frequently Used) evicts the key that has been accessed
	// the fewest times.
	LFU PolicyType = "lfu"

	// ARC (Adaptive Replacement Cache) balances recency and frequency by
	// tracking ghost lists of recently evicted keys and shifting its
	// target between the two as the workload changes.
	ARC PolicyType = "arc"

	// FIFO (First In First Out) evicts the oldest inserted key, regardless
	// of access.
	FIFO PolicyType = "fifo"
)

// New creates the eviction policy for the given type, bounded by capacity.
func New(t PolicyType, capacity int) (Policy, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("eviction: capacity must be >= 1, got %d", capacity)
	}
	switch t {
	case LRU:
		return newLRU(capacity), nil
	case LFU:
		return newLFU(capacity), nil
	case ARC:
		return newARC(capacity), nil
	case FIFO:
		return newFIFO(capacity), nil
	default:
		return nil, fmt.Errorf("eviction: unknown policy %q", t)
	}
}
