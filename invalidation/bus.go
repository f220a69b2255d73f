/*
Package invalidation broadcasts deletes across process instances.

Every mutation enqueues its keys on the bus instead of publishing
immediately. A single worker drains the queue: the first enqueue arms a
debounce timer, and when it fires all queued key sets are merged into one
outgoing message per subscribed channel. Receivers drop their own echoes
(matched by instance id) and purge the remaining keys from the local tiers
only — the remote tier is already consistent, the peer just wrote it.

Delivery is best-effort: publish failures are reported through the error
hook, never returned to the operation that triggered the broadcast.
*/
package invalidation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Message is the wire schema published on every channel.
type Message struct {
	Keys      []string `json:"keys"`
	Source    string   `json:"source"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

// Bus is the per-process invalidation endpoint.
type Bus struct {
	transport  Transport
	channels   []string
	instanceID string
	debounce   time.Duration

	// onInvalidate purges keys from the local tiers on receipt of a peer's
	// message.
	onInvalidate func(keys []string)

	// onError observes publish/decode failures. Best-effort path: errors
	// are counted and logged, never thrown.
	onError func(error)

	log *zap.Logger

	requests chan []string
	done     chan struct{}
	wg       sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once
}

// Options configures a Bus.
type Options struct {
	// Channels are the broadcast channel names to publish and subscribe on.
	Channels []string

	// InstanceID identifies this process; messages carrying it are
	// discarded on receipt (self-echo suppression).
	InstanceID string

	// Debounce is the quiet period during which broadcasts are coalesced.
	Debounce time.Duration

	// QueueSize bounds the pending broadcast queue. Enqueues beyond it are
	// dropped (invalidation is best-effort).
	QueueSize int

	// OnInvalidate is called with the keys of every accepted peer message.
	OnInvalidate func(keys []string)

	// OnError observes delivery errors. Optional.
	OnError func(error)

	Logger *zap.Logger
}

// NewBus creates a bus. Start must be called before it publishes or
// receives anything.
func NewBus(t Transport, opts Options) *Bus {
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if len(opts.Channels) == 0 {
		opts.Channels = []string{"cache:invalidate"}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	if opts.OnInvalidate == nil {
		opts.OnInvalidate = func([]string) {}
	}
	return &Bus{
		transport:    t,
		channels:     opts.Channels,
		instanceID:   opts.InstanceID,
		debounce:     opts.Debounce,
		onInvalidate: opts.OnInvalidate,
		onError:      opts.OnError,
		log:          opts.Logger,
		requests:     make(chan []string, opts.QueueSize),
		done:         make(chan struct{}),
	}
}

// Start subscribes to the configured channels and launches the publish and
// receive workers.
func (b *Bus) Start(ctx context.Context) error {
	var err error
	b.startOnce.Do(func() {
		var incoming <-chan []byte
		incoming, err = b.transport.Subscribe(ctx, b.channels...)
		if err != nil {
			return
		}

		b.wg.Add(2)
		go b.publishLoop()
		go b.receiveLoop(incoming)
	})
	return err
}

// Broadcast queues keys for the next debounced publish. It never blocks:
// when the queue is full the broadcast is dropped and reported.
func (b *Bus) Broadcast(keys []string) {
	if len(keys) == 0 {
		return
	}
	select {
	case b.requests <- keys:
	case <-b.done:
	default:
		b.log.Warn("invalidation queue full, dropping broadcast",
			zap.Int("keys", len(keys)))
	}
}

// publishLoop is the single drain task: it merges queued key sets and
// publishes one message per channel when the debounce timer fires.
func (b *Bus) publishLoop() {
	defer b.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(b.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	flush := func() {
		if len(pending) == 0 {
			return
		}
		keys := make([]string, 0, len(pending))
		for k := range pending {
			keys = append(keys, k)
		}
		clear(pending)
		b.publish(keys)
	}

	for {
		select {
		case keys := <-b.requests:
			for _, k := range keys {
				pending[k] = struct{}{}
			}
			if !armed {
				timer.Reset(b.debounce)
				armed = true
			}

		case <-timer.C:
			armed = false
			flush()

		case <-b.done:
			if armed && !timer.Stop() {
				<-timer.C
			}
			// Drain whatever was queued before shutdown.
			for {
				select {
				case keys := <-b.requests:
					for _, k := range keys {
						pending[k] = struct{}{}
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (b *Bus) publish(keys []string) {
	msg := Message{
		Keys:      keys,
		Source:    b.instanceID,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.onError(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ch := range b.channels {
		if err := b.transport.Publish(ctx, ch, payload); err != nil {
			b.log.Error("invalidation publish failed",
				zap.String("channel", ch), zap.Error(err))
			b.onError(err)
		}
	}
}

// receiveLoop consumes peer messages until the transport closes its
// channel or the bus shuts down.
func (b *Bus) receiveLoop(incoming <-chan []byte) {
	defer b.wg.Done()

	for {
		select {
		case payload, ok := <-incoming:
			if !ok {
				return
			}
			b.handle(payload)
		case <-b.done:
			return
		}
	}
}

func (b *Bus) handle(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.onError(err)
		return
	}
	if msg.Source == b.instanceID {
		// Our own echo; the local tiers were already purged by the
		// operation that broadcast it.
		return
	}
	if len(msg.Keys) == 0 {
		return
	}
	b.onInvalidate(msg.Keys)
}

// Close stops both workers, flushing any queued broadcast first.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		err = b.transport.Close()
	})
	return err
}
