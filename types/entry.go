package types

import "time"

// Entry is one cached value as held by a local tier.
// No entry is shared by reference across tiers: promotion always clones,
// so eviction in one tier can never corrupt another.
//
// Entry is intentionally mutable for timestamps. Timestamp races are
// acceptable.
type Entry struct {
	Key            string
	Payload        []byte
	WrittenAt      time.Time
	LastAccessedAt time.Time
	ExpiresAt      time.Time // zero => no TTL
}

// Clone returns a copy of the entry with its own payload slice.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Payload = make([]byte, len(e.Payload))
	copy(c.Payload, e.Payload)
	return &c
}

// Expired reports whether the entry is past its TTL at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
