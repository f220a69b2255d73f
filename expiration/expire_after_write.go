package expiration

import (
	"time"

	"github.com/krisalay/distributed-cache/types"
)

// ExpireAfterWrite gives every entry a fixed lifetime counted from the
// moment it was written. Reads do not extend it. This is the default
// strategy for both local tiers.
//
// An entry written with an explicit per-call TTL keeps it; the strategy's
// TTL only fills in when none was set.
type ExpireAfterWrite struct {

	// TTL is the default lifetime applied when the entry carries none.
	// Zero means entries without an explicit TTL never expire.
	TTL time.Duration
}

// IsExpired checks whether the entry is past its deadline.
func (e *ExpireAfterWrite) IsExpired(ent *types.Entry, now time.Time) bool {
	return ent.Expired(now)
}

// OnAccess records the access time. The deadline is not moved.
func (e *ExpireAfterWrite) OnAccess(ent *types.Entry, now time.Time) {
	ent.LastAccessedAt = now
}

// OnWrite stamps the entry and applies the default TTL when the caller set
// none.
func (e *ExpireAfterWrite) OnWrite(ent *types.Entry, now time.Time) {
	ent.WrittenAt = now
	ent.LastAccessedAt = now
	if ent.ExpiresAt.IsZero() && e.TTL > 0 {
		ent.ExpiresAt = now.Add(e.TTL)
	}
}
