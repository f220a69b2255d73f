/*
Package remote implements the authoritative cache tier on Redis.

All cache keys are namespaced with a fixed prefix before touching Redis and
de-namespaced on the way back, so the cache can share a Redis instance with
other consumers. Tag sets live under their own "tag:" keys and hold the
prefixed member keys.
*/
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/krisalay/distributed-cache/types"
)

// DefaultPrefix is the namespace applied to every cache key in Redis.
const DefaultPrefix = "cache:"

// tagPrefix namespaces tag member sets.
const tagPrefix = "tag:"

// Store implements types.Remote over a Redis client. The client is a
// process-wide singleton owned by the caller unless the store was built
// with Dial.
type Store struct {
	rdb        redis.UniversalClient
	prefix     string
	ownsClient bool
}

var _ types.Remote = (*Store)(nil)

// New wraps an existing Redis client. The caller keeps ownership of the
// client; Close on the store is then a no-op.
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Dial connects to a single Redis instance and returns a store that owns
// the connection.
func Dial(addr, password string, db int, prefix string) *Store {
	s := New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), prefix)
	s.ownsClient = true
	return s
}

// Client exposes the underlying Redis client, shared with the pub/sub
// transport so one connection pool serves both.
func (s *Store) Client() redis.UniversalClient { return s.rdb }

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) unkey(k string) string { return strings.TrimPrefix(k, s.prefix) }

// Get fetches the payload for key. A missing key is (nil, false, nil), not
// an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("remote get %q: %w", key, err)
	}
	return data, true, nil
}

// Set writes the payload, using Redis's native expiry when ttl > 0.
func (s *Store) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("remote set %q: %w", key, err)
	}
	return nil
}

// Del removes the keys and returns how many existed.
func (s *Store) Del(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	n, err := s.rdb.Del(ctx, prefixed...).Result()
	if err != nil {
		return 0, fmt.Errorf("remote del: %w", err)
	}
	return int(n), nil
}

// Scan walks the namespaced keyspace with a cursor, handing fn pages of at
// most pageSize logical keys. The cursor keeps memory bounded no matter
// how large the keyspace is.
func (s *Store) Scan(ctx context.Context, pattern string, pageSize int, fn func(keys []string) error) error {
	var (
		cursor uint64
		page   = make([]string, 0, pageSize)
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.key(pattern), int64(pageSize)).Result()
		if err != nil {
			return fmt.Errorf("remote scan %q: %w", pattern, err)
		}
		for _, k := range keys {
			page = append(page, s.unkey(k))
			if len(page) == pageSize {
				if err := fn(page); err != nil {
					return err
				}
				page = page[:0]
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(page) > 0 {
		return fn(page)
	}
	return nil
}

// Tag records key as a member of each named tag set.
func (s *Store) Tag(ctx context.Context, key string, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, tag := range tags {
		pipe.SAdd(ctx, tagPrefix+tag, s.key(key))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remote tag %q: %w", key, err)
	}
	return nil
}

// TagMembers returns the logical keys recorded under the tag.
func (s *Store) TagMembers(ctx context.Context, tag string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, tagPrefix+tag).Result()
	if err != nil {
		return nil, fmt.Errorf("remote tag members %q: %w", tag, err)
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.unkey(m)
	}
	return keys, nil
}

// DeleteTag removes the tag set itself.
func (s *Store) DeleteTag(ctx context.Context, tag string) error {
	if err := s.rdb.Del(ctx, tagPrefix+tag).Err(); err != nil {
		return fmt.Errorf("remote delete tag %q: %w", tag, err)
	}
	return nil
}

// Close releases the connection when the store owns it.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.rdb.Close()
	}
	return nil
}
