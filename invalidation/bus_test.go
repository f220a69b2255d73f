package invalidation_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/distributed-cache/invalidation"
)

// memHub is an in-process pub/sub fabric. Every subscriber receives every
// published payload, the publisher included, matching Redis semantics.
type memHub struct {
	mu   sync.Mutex
	subs []chan []byte

	published [][]byte
}

func (h *memHub) transport() *memTransport { return &memTransport{hub: h} }

func (h *memHub) publish(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, payload)
	for _, sub := range h.subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

func (h *memHub) subscribe() chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan []byte, 64)
	h.subs = append(h.subs, ch)
	return ch
}

func (h *memHub) messages() []invalidation.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]invalidation.Message, 0, len(h.published))
	for _, p := range h.published {
		var msg invalidation.Message
		if err := json.Unmarshal(p, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

type memTransport struct {
	hub *memHub
	sub chan []byte
}

func (t *memTransport) Publish(_ context.Context, _ string, payload []byte) error {
	t.hub.publish(payload)
	return nil
}

func (t *memTransport) Subscribe(_ context.Context, _ ...string) (<-chan []byte, error) {
	t.sub = t.hub.subscribe()
	return t.sub, nil
}

func (t *memTransport) Close() error { return nil }

// keyRecorder collects invalidated keys across goroutines.
type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) record(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
}

func (r *keyRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.keys...)
	sort.Strings(out)
	return out
}

func TestBusDebounceMergesBroadcasts(t *testing.T) {
	hub := &memHub{}
	bus := invalidation.NewBus(hub.transport(), invalidation.Options{
		InstanceID: "a",
		Debounce:   30 * time.Millisecond,
	})
	require.NoError(t, bus.Start(context.Background()))
	defer bus.Close()

	bus.Broadcast([]string{"k1"})
	bus.Broadcast([]string{"k2"})
	bus.Broadcast([]string{"k1", "k3"})

	assert.Eventually(t, func() bool {
		return len(hub.messages()) == 1
	}, time.Second, 5*time.Millisecond, "bursts inside the quiet period merge into one message")

	msg := hub.messages()[0]
	keys := append([]string(nil), msg.Keys...)
	sort.Strings(keys)
	assert.Equal(t, []string{"k1", "k2", "k3"}, keys)
	assert.Equal(t, "a", msg.Source)
	assert.NotZero(t, msg.Timestamp)

	// A later broadcast starts a fresh window: second message.
	bus.Broadcast([]string{"k4"})
	assert.Eventually(t, func() bool {
		return len(hub.messages()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestBusSuppressesOwnEcho(t *testing.T) {
	hub := &memHub{}

	var recA, recB keyRecorder
	busA := invalidation.NewBus(hub.transport(), invalidation.Options{
		InstanceID:   "a",
		Debounce:     10 * time.Millisecond,
		OnInvalidate: recA.record,
	})
	busB := invalidation.NewBus(hub.transport(), invalidation.Options{
		InstanceID:   "b",
		Debounce:     10 * time.Millisecond,
		OnInvalidate: recB.record,
	})
	require.NoError(t, busA.Start(context.Background()))
	require.NoError(t, busB.Start(context.Background()))
	defer busA.Close()
	defer busB.Close()

	busA.Broadcast([]string{"k1", "k2"})

	assert.Eventually(t, func() bool {
		return len(recB.snapshot()) == 2
	}, time.Second, 5*time.Millisecond, "the peer purges the broadcast keys")
	assert.Equal(t, []string{"k1", "k2"}, recB.snapshot())

	// The sender saw its own message on the wire but must not act on it.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, recA.snapshot())
}

func TestBusCloseFlushesPending(t *testing.T) {
	hub := &memHub{}
	bus := invalidation.NewBus(hub.transport(), invalidation.Options{
		InstanceID: "a",
		Debounce:   time.Hour, // never fires on its own
	})
	require.NoError(t, bus.Start(context.Background()))

	bus.Broadcast([]string{"k1"})
	bus.Broadcast([]string{"k2"})
	require.NoError(t, bus.Close())

	msgs := hub.messages()
	require.Len(t, msgs, 1, "shutdown publishes the queued keys instead of dropping them")
	keys := append([]string(nil), msgs[0].Keys...)
	sort.Strings(keys)
	assert.Equal(t, []string{"k1", "k2"}, keys)
}

func TestBusRejectsMalformedPayloads(t *testing.T) {
	hub := &memHub{}

	var rec keyRecorder
	errs := make(chan error, 1)
	bus := invalidation.NewBus(hub.transport(), invalidation.Options{
		InstanceID:   "a",
		Debounce:     10 * time.Millisecond,
		OnInvalidate: rec.record,
		OnError:      func(err error) { errs <- err },
	})
	require.NoError(t, bus.Start(context.Background()))
	defer bus.Close()

	hub.publish([]byte("not json"))

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("decode error was not reported")
	}
	assert.Empty(t, rec.snapshot())
}
