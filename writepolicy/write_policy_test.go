package writepolicy_test

import (
	"context"
	"errors"
	"path"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/distributed-cache/writepolicy"
)

// fakeRemote is an in-memory authoritative store with failure injection.
type fakeRemote struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string][]byte)}
}

func (f *fakeRemote) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.data[key]
	return p, ok
}

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	p, ok := f.get(key)
	return p, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = payload
	return nil
}

func (f *fakeRemote) Del(_ context.Context, keys ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRemote) Scan(_ context.Context, pattern string, pageSize int, fn func([]string) error) error {
	f.mu.Lock()
	var matched []string
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			matched = append(matched, k)
		}
	}
	f.mu.Unlock()
	sort.Strings(matched)
	for len(matched) > 0 {
		n := min(pageSize, len(matched))
		if err := fn(matched[:n]); err != nil {
			return err
		}
		matched = matched[n:]
	}
	return nil
}

func (f *fakeRemote) Tag(context.Context, string, ...string) error     { return nil }
func (f *fakeRemote) TagMembers(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeRemote) DeleteTag(context.Context, string) error          { return nil }
func (f *fakeRemote) Close() error                                     { return nil }

func TestWriteThroughWritesSynchronously(t *testing.T) {
	rem := newFakeRemote()
	wp := writepolicy.NewWriteThrough(rem)

	require.NoError(t, wp.OnWrite(context.Background(), "k", []byte("v"), time.Minute))
	_, ok := rem.get("k")
	assert.True(t, ok, "write-through must land before OnWrite returns")
	assert.NoError(t, wp.Close())
}

func TestWriteThroughPropagatesRemoteError(t *testing.T) {
	rem := newFakeRemote()
	rem.setErr = errors.New("redis down")
	wp := writepolicy.NewWriteThrough(rem)

	err := wp.OnWrite(context.Background(), "k", []byte("v"), 0)
	assert.ErrorContains(t, err, "redis down")
}

func TestWriteBehindDefersPersistence(t *testing.T) {
	rem := newFakeRemote()
	wp := writepolicy.NewWriteBehind(rem, 40*time.Millisecond, 16, nil, nil)
	defer wp.Close()

	require.NoError(t, wp.OnWrite(context.Background(), "k", []byte("v"), 0))

	_, ok := rem.get("k")
	assert.False(t, ok, "the write is acknowledged before it is persisted")

	assert.Eventually(t, func() bool {
		_, ok := rem.get("k")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestWriteBehindDropsWhenQueueFull(t *testing.T) {
	rem := newFakeRemote()
	errs := make(chan error, 8)
	wp := writepolicy.NewWriteBehind(rem, 200*time.Millisecond, 1, func(err error) { errs <- err }, nil)
	defer wp.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, wp.OnWrite(context.Background(), "k", []byte("v"), 0))
	}

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, writepolicy.ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("saturating the queue did not report a drop")
	}
}

func TestWriteBehindCloseFlushesQueue(t *testing.T) {
	rem := newFakeRemote()
	wp := writepolicy.NewWriteBehind(rem, time.Hour, 16, nil, nil)

	require.NoError(t, wp.OnWrite(context.Background(), "k1", []byte("v"), 0))
	require.NoError(t, wp.OnWrite(context.Background(), "k2", []byte("v"), 0))
	require.NoError(t, wp.Close())

	_, ok1 := rem.get("k1")
	_, ok2 := rem.get("k2")
	assert.True(t, ok1 && ok2, "shutdown persists queued writes without waiting out the delay")
}

func TestWriteBehindReportsPersistFailure(t *testing.T) {
	rem := newFakeRemote()
	rem.setErr = errors.New("redis down")
	errs := make(chan error, 1)
	wp := writepolicy.NewWriteBehind(rem, time.Millisecond, 16, func(err error) { errs <- err }, nil)
	defer wp.Close()

	require.NoError(t, wp.OnWrite(context.Background(), "k", []byte("v"), 0))

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "redis down")
	case <-time.After(time.Second):
		t.Fatal("persist failure was not reported")
	}
}
