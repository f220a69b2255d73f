package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/distributed-cache/types"
)

// Ahead reloads an entry in the background when a read finds it close to
// expiry, so hot keys rarely pay the miss penalty. Best-effort: a failed
// reload is logged and the entry simply expires as usual.
type Ahead struct {

	// Threshold is how close to expiry an entry must be before a read
	// triggers the background reload.
	Threshold time.Duration

	loader types.Loader

	// reload writes the freshly loaded value back through the cache's
	// standard set path.
	reload func(ctx context.Context, key string, value any)

	log      *zap.Logger
	inflight sync.Map // key -> struct{}, dedupes concurrent reloads
}

// NewAhead creates the hook. reload is called with the loader's result for
// every successful background refresh.
func NewAhead(threshold time.Duration, loader types.Loader, reload func(ctx context.Context, key string, value any), log *zap.Logger) *Ahead {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ahead{
		Threshold: threshold,
		loader:    loader,
		reload:    reload,
		log:       log,
	}
}

// OnRead checks the entry's remaining TTL and kicks off at most one
// background reload per key.
func (a *Ahead) OnRead(key string, ent *types.Entry) {
	if ent.ExpiresAt.IsZero() || a.loader == nil {
		return
	}
	if time.Until(ent.ExpiresAt) > a.Threshold {
		return
	}
	if _, loading := a.inflight.LoadOrStore(key, struct{}{}); loading {
		return
	}

	go func() {
		defer a.inflight.Delete(key)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		v, err := a.loader.Load(ctx, key)
		if err != nil {
			a.log.Warn("refresh-ahead load failed",
				zap.String("key", key), zap.Error(err))
			return
		}
		if v == nil {
			return
		}
		a.reload(ctx, key, v)
	}()
}
