// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/distributed-cache/types"
)

// Strategy is the interface that all expiration rules follow. Expiration
// behavior is pluggable per tier rather than hard-coded into the cache.
//
// Expiry is lazy everywhere: nothing scans for dead entries, they are
// detected and purged on access.
type Strategy interface {

	// IsExpired checks if the entry is expired at the given time.
	IsExpired(*types.Entry, time.Time) bool

	// OnAccess is called whenever an entry is read successfully.
	OnAccess(*types.Entry, time.Time)

	// OnWrite is called whenever an entry is written or replaced.
	OnWrite(*types.Entry, time.Time)
}
