package types

import "context"

// Loader is the contract between the cache and whatever produces values on a
// miss: a database query, an internal API call, a computation.
//
// The flow on a read-through miss is:
//  1. Cache checks L1, L2 and the remote tier -> key not found
//  2. Cache calls Load(key)
//  3. The loaded value is written back through Set
//  4. The value is returned to the caller
//
// A (nil, nil) return means the key does not exist upstream; nothing is
// cached and the miss is returned as-is.
type Loader interface {
	Load(ctx context.Context, key string) (any, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (any, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}
