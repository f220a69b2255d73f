// This file defines the read-path refresh hook: a chance to do something
// extra whenever an entry is served from a local tier, without ever
// blocking the read itself.

package refresh

import "github.com/krisalay/distributed-cache/types"

// Hook is called after every successful local-tier read. Implementations
// MUST be fast and non-blocking; this runs on the hot read path.
type Hook interface {
	OnRead(key string, ent *types.Entry)
}
