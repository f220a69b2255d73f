package expiration

import (
	"time"

	"github.com/krisalay/distributed-cache/types"
)

// ExpireAfterAccess implements sliding TTL: every successful read pushes the
// expiration deadline forward. Data that keeps getting used stays alive;
// data nobody touches for TTL expires.
type ExpireAfterAccess struct {

	// TTL defines how long the entry remains valid after each access.
	TTL time.Duration
}

// IsExpired checks whether the entry is expired at this moment.
func (e *ExpireAfterAccess) IsExpired(ent *types.Entry, now time.Time) bool {
	return ent.Expired(now)
}

// OnAccess updates the access time and pushes the deadline forward by TTL.
func (e *ExpireAfterAccess) OnAccess(ent *types.Entry, now time.Time) {
	ent.LastAccessedAt = now
	ent.ExpiresAt = now.Add(e.TTL)
}

// OnWrite stamps the entry. The deadline is only set when the caller did
// not choose an explicit TTL, so a per-call TTL is never overwritten.
func (e *ExpireAfterAccess) OnWrite(ent *types.Entry, now time.Time) {
	ent.WrittenAt = now
	ent.LastAccessedAt = now
	if ent.ExpiresAt.IsZero() && e.TTL > 0 {
		ent.ExpiresAt = now.Add(e.TTL)
	}
}
