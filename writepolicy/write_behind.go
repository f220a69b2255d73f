package writepolicy

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/distributed-cache/types"
)

// ErrQueueFull is reported through the error hook when a write is dropped
// because the write-behind queue is saturated.
var ErrQueueFull = errors.New("writepolicy: write-behind queue full")

// writeReq is one pending remote write.
type writeReq struct {
	key     string
	payload []byte
	ttl     time.Duration
	due     time.Time
}

// WriteBehind acknowledges writes locally and persists them to the remote
// tier after a fixed delay. The queue is bounded; under pressure new
// writes are dropped rather than slowing down the cache, and every
// failure or drop goes to the error hook. There are no retries here.
type WriteBehind struct {
	remote  types.Remote
	delay   time.Duration
	onError func(error)
	log     *zap.Logger

	ch   chan writeReq
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewWriteBehind creates the policy and starts its single background
// worker. onError may be nil.
func NewWriteBehind(remote types.Remote, delay time.Duration, buffer int, onError func(error), log *zap.Logger) *WriteBehind {
	if buffer <= 0 {
		buffer = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	if onError == nil {
		onError = func(error) {}
	}
	w := &WriteBehind{
		remote:  remote,
		delay:   delay,
		onError: onError,
		log:     log,
		ch:      make(chan writeReq, buffer),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

// OnWrite queues the payload for deferred persistence and returns
// immediately. A full queue drops the write: the cache stays fast and the
// remote store may miss an update, which is the write-behind trade.
func (w *WriteBehind) OnWrite(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	req := writeReq{key: key, payload: payload, ttl: ttl, due: time.Now().Add(w.delay)}
	select {
	case <-w.done:
		return nil
	case w.ch <- req:
	default:
		w.log.Warn("write-behind queue full, dropping write", zap.String("key", key))
		w.onError(ErrQueueFull)
	}
	return nil
}

// worker drains the queue in order, waiting out each request's delay
// before writing. Failures are reported, not retried.
func (w *WriteBehind) worker() {
	defer w.wg.Done()

	for {
		select {
		case req := <-w.ch:
			w.persist(req, true)
		case <-w.done:
			// Shutting down: flush whatever is still queued, without
			// waiting out the delays.
			for {
				select {
				case req := <-w.ch:
					w.persist(req, false)
				default:
					return
				}
			}
		}
	}
}

func (w *WriteBehind) persist(req writeReq, wait bool) {
	if delay := time.Until(req.due); wait && delay > 0 {
		select {
		case <-time.After(delay):
		case <-w.done:
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := w.remote.Set(ctx, req.key, req.payload, req.ttl)
	cancel()
	if err != nil {
		w.log.Error("write-behind persist failed",
			zap.String("key", req.key), zap.Error(err))
		w.onError(err)
	}
}

// Close stops accepting writes and flushes everything still queued.
func (w *WriteBehind) Close() error {
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
	return nil
}
