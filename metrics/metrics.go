/*
Package metrics collects what the cache is doing: hit/miss counters per
tier, operation and error counters, and a bounded sliding window of
latencies per operation kind. Counters are exported through Prometheus and
mirrored in atomics so a point-in-time Snapshot can be read back without
scraping.
*/
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// windowSize bounds the latency sample window per operation kind.
const windowSize = 100

// Tier labels used for hit/miss attribution.
const (
	TierL1     = "l1"
	TierL2     = "l2"
	TierRemote = "remote"
)

// Collector gathers cache metrics. All methods are safe for concurrent use
// and cheap enough for the hot path.
type Collector struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	ops    *prometheus.CounterVec
	errors prometheus.Counter
	tier   *prometheus.GaugeVec

	// Mirrors for Snapshot.
	hitCounts  sync.Map // tier -> *atomic.Int64
	missCounts sync.Map
	opCounts   sync.Map // op -> *atomic.Int64
	errCount   atomic.Int64

	windows sync.Map // op -> *latencyWindow

	log  *zap.Logger
	done chan struct{}
	once sync.Once
}

// NewCollector creates a collector registered against reg. Passing nil
// registers on a private registry, which keeps tests independent.
func NewCollector(reg prometheus.Registerer, log *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	factory := promauto.With(reg)
	return &Collector{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_tier_hits_total",
			Help: "Cache hits per tier",
		}, []string{"tier"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_tier_misses_total",
			Help: "Cache misses per tier",
		}, []string{"tier"}),
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations by kind",
		}, []string{"op"}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Cache operation errors",
		}),
		tier: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_tier_entries",
			Help: "Current entries per local tier",
		}, []string{"tier"}),
		log:  log,
		done: make(chan struct{}),
	}
}

func counter(m *sync.Map, key string) *atomic.Int64 {
	if v, ok := m.Load(key); ok {
		return v.(*atomic.Int64)
	}
	v, _ := m.LoadOrStore(key, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// Hit records a hit on the named tier.
func (c *Collector) Hit(tier string) {
	c.hits.WithLabelValues(tier).Inc()
	counter(&c.hitCounts, tier).Add(1)
}

// Miss records a miss on the named tier.
func (c *Collector) Miss(tier string) {
	c.misses.WithLabelValues(tier).Inc()
	counter(&c.missCounts, tier).Add(1)
}

// Op records one operation of the named kind (set, delete, invalidate...).
func (c *Collector) Op(name string) {
	c.ops.WithLabelValues(name).Inc()
	counter(&c.opCounts, name).Add(1)
}

// Error records a failed operation.
func (c *Collector) Error() {
	c.errors.Inc()
	c.errCount.Add(1)
}

// Observe records the latency of one operation of the named kind in the
// sliding window.
func (c *Collector) Observe(op string, d time.Duration) {
	w, ok := c.windows.Load(op)
	if !ok {
		w, _ = c.windows.LoadOrStore(op, newLatencyWindow())
	}
	w.(*latencyWindow).add(d)
}

// AvgLatency returns the average over the last windowSize samples for the
// operation kind, or zero when nothing was recorded.
func (c *Collector) AvgLatency(op string) time.Duration {
	w, ok := c.windows.Load(op)
	if !ok {
		return 0
	}
	return w.(*latencyWindow).avg()
}

// SetTierSize reports the current occupancy of a local tier.
func (c *Collector) SetTierSize(tier string, n int) {
	c.tier.WithLabelValues(tier).Set(float64(n))
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits       map[string]int64
	Misses     map[string]int64
	Ops        map[string]int64
	Errors     int64
	AvgLatency map[string]time.Duration
}

// HitRate returns the hit rate for a tier as a value between 0 and 1.
func (s Snapshot) HitRate(tier string) float64 {
	total := s.Hits[tier] + s.Misses[tier]
	if total == 0 {
		return 0
	}
	return float64(s.Hits[tier]) / float64(total)
}

// Snapshot reads the current counter values.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		Hits:       make(map[string]int64),
		Misses:     make(map[string]int64),
		Ops:        make(map[string]int64),
		AvgLatency: make(map[string]time.Duration),
		Errors:     c.errCount.Load(),
	}
	c.hitCounts.Range(func(k, v any) bool {
		s.Hits[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	c.missCounts.Range(func(k, v any) bool {
		s.Misses[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	c.opCounts.Range(func(k, v any) bool {
		s.Ops[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	c.windows.Range(func(k, v any) bool {
		s.AvgLatency[k.(string)] = v.(*latencyWindow).avg()
		return true
	})
	return s
}

// StartSnapshotLoop emits a snapshot on every tick: tier occupancy gauges
// are refreshed from the occupancy callback and a summary line is logged
// for external consumption. Stop it with Close.
func (c *Collector) StartSnapshotLoop(interval time.Duration, occupancy func() map[string]int) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				snap := c.Snapshot()
				fields := []zap.Field{
					zap.Int64("errors", snap.Errors),
				}
				for _, t := range []string{TierL1, TierL2, TierRemote} {
					fields = append(fields, zap.Float64("hit_rate_"+t, snap.HitRate(t)))
				}
				if occupancy != nil {
					for t, n := range occupancy() {
						c.SetTierSize(t, n)
						fields = append(fields, zap.Int("entries_"+t, n))
					}
				}
				for op, d := range snap.AvgLatency {
					fields = append(fields, zap.Duration("avg_"+op, d))
				}
				c.log.Info("cache snapshot", fields...)
			case <-c.done:
				return
			}
		}
	}()
}

// Close stops the snapshot loop.
func (c *Collector) Close() {
	c.once.Do(func() { close(c.done) })
}

// latencyWindow is a fixed-size ring of the most recent samples.
type latencyWindow struct {
	mu      sync.Mutex
	samples [windowSize]time.Duration
	idx     int
	count   int
}

func newLatencyWindow() *latencyWindow {
	return &latencyWindow{}
}

func (w *latencyWindow) add(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples[w.idx] = d
	w.idx = (w.idx + 1) % windowSize
	if w.count < windowSize {
		w.count++
	}
}

func (w *latencyWindow) avg() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < w.count; i++ {
		sum += w.samples[i]
	}
	return sum / time.Duration(w.count)
}
