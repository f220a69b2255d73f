package invalidation

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Transport is the pub/sub layer under the bus. It is an interface so tests
// can run multiple simulated instances over an in-process transport.
type Transport interface {

	// Publish sends one payload on the named channel.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe returns a channel of raw message payloads for the named
	// broadcast channels. The channel is closed when the transport closes.
	Subscribe(ctx context.Context, channels ...string) (<-chan []byte, error)

	// Close tears the subscription down.
	Close() error
}

// RedisTransport implements Transport over Redis pub/sub, sharing the
// client with the remote tier.
type RedisTransport struct {
	rdb    redis.UniversalClient
	pubsub *redis.PubSub
}

// NewRedisTransport wraps the client. The client's lifecycle stays with
// its owner; Close only tears down the subscription.
func NewRedisTransport(rdb redis.UniversalClient) *RedisTransport {
	return &RedisTransport{rdb: rdb}
}

func (t *RedisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	return t.rdb.Publish(ctx, channel, payload).Err()
}

func (t *RedisTransport) Subscribe(ctx context.Context, channels ...string) (<-chan []byte, error) {
	t.pubsub = t.rdb.Subscribe(ctx, channels...)

	// Force the subscription onto the wire before anyone publishes.
	if _, err := t.pubsub.Receive(ctx); err != nil {
		_ = t.pubsub.Close()
		return nil, err
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range t.pubsub.Channel() {
			out <- []byte(msg.Payload)
		}
	}()
	return out, nil
}

func (t *RedisTransport) Close() error {
	if t.pubsub != nil {
		return t.pubsub.Close()
	}
	return nil
}
