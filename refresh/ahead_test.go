package refresh_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/distributed-cache/refresh"
	"github.com/krisalay/distributed-cache/types"
)

type reloadRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *reloadRecorder) record(_ context.Context, key string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key)
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestAheadReloadsNearExpiry(t *testing.T) {
	loader := types.LoaderFunc(func(_ context.Context, _ string) (any, error) {
		return "fresh", nil
	})
	var rec reloadRecorder
	hook := refresh.NewAhead(time.Minute, loader, rec.record, nil)

	hook.OnRead("k", &types.Entry{Key: "k", ExpiresAt: time.Now().Add(10 * time.Second)})

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAheadIgnoresFreshEntries(t *testing.T) {
	loader := types.LoaderFunc(func(_ context.Context, _ string) (any, error) {
		return "fresh", nil
	})
	var rec reloadRecorder
	hook := refresh.NewAhead(time.Minute, loader, rec.record, nil)

	hook.OnRead("far", &types.Entry{Key: "far", ExpiresAt: time.Now().Add(time.Hour)})
	hook.OnRead("none", &types.Entry{Key: "none"}) // no TTL, nothing to refresh

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestAheadDedupesConcurrentReloads(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	loader := types.LoaderFunc(func(_ context.Context, _ string) (any, error) {
		close(started)
		<-release
		return "fresh", nil
	})
	var rec reloadRecorder
	hook := refresh.NewAhead(time.Minute, loader, rec.record, nil)

	ent := &types.Entry{Key: "k", ExpiresAt: time.Now().Add(time.Second)}
	hook.OnRead("k", ent)
	<-started

	// Reads while the reload is in flight must not start another one.
	hook.OnRead("k", ent)
	hook.OnRead("k", ent)
	close(release)

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}
