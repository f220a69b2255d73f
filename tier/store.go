package tier

import "github.com/krisalay/distributed-cache/types"

// Store is the interface a tier uses to hold its entries. Keeping storage
// behind an interface leaves the eviction policy and TTL logic independent
// of how the bytes are actually kept.
type Store interface {

	// Get retrieves an entry by key.
	Get(string) (*types.Entry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.Entry)

	// Delete removes an entry.
	Delete(string)

	// Size returns how many entries are stored.
	Size() int
}

// mapStore is the default Store: a plain map. The owning tier serializes
// all access under its own mutex, so the map needs no locking of its own.
type mapStore struct {
	data map[string]*types.Entry
}

// NewMapStore creates an empty map-backed store.
func NewMapStore() Store {
	return &mapStore{data: make(map[string]*types.Entry)}
}

func (s *mapStore) Get(key string) (*types.Entry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.Entry) {
	s.data[key] = ent
}

func (s *mapStore) Delete(key string) {
	delete(s.data, key)
}

func (s *mapStore) Size() int {
	return len(s.data)
}
