package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCountersAndSnapshot(t *testing.T) {
	c := NewCollector(nil, nil)
	defer c.Close()

	c.Hit(TierL1)
	c.Hit(TierL1)
	c.Miss(TierL1)
	c.Hit(TierRemote)
	c.Op("set")
	c.Op("set")
	c.Op("delete")
	c.Error()

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Hits[TierL1])
	assert.Equal(t, int64(1), snap.Misses[TierL1])
	assert.Equal(t, int64(1), snap.Hits[TierRemote])
	assert.Equal(t, int64(2), snap.Ops["set"])
	assert.Equal(t, int64(1), snap.Ops["delete"])
	assert.Equal(t, int64(1), snap.Errors)

	assert.InDelta(t, 2.0/3.0, snap.HitRate(TierL1), 1e-9)
	assert.Equal(t, 1.0, snap.HitRate(TierRemote))
	assert.Equal(t, 0.0, snap.HitRate(TierL2), "no samples means rate zero, not NaN")
}

func TestCollectorExportsPrometheusCounters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewCollector(reg, nil)
	defer c.Close()

	c.Hit(TierL1)
	c.Hit(TierL1)
	c.Miss(TierL2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.hits.WithLabelValues(TierL1)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.misses.WithLabelValues(TierL2)))
}

func TestLatencyWindowAverage(t *testing.T) {
	c := NewCollector(nil, nil)
	defer c.Close()

	assert.Equal(t, time.Duration(0), c.AvgLatency("get"))

	c.Observe("get", 10*time.Millisecond)
	c.Observe("get", 20*time.Millisecond)
	c.Observe("get", 30*time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, c.AvgLatency("get"))
}

func TestLatencyWindowSlides(t *testing.T) {
	c := NewCollector(nil, nil)
	defer c.Close()

	// Old outliers must age out once windowSize newer samples arrive.
	for i := 0; i < 50; i++ {
		c.Observe("get", time.Second)
	}
	for i := 0; i < windowSize; i++ {
		c.Observe("get", 2*time.Millisecond)
	}
	assert.Equal(t, 2*time.Millisecond, c.AvgLatency("get"))
}

func TestSetTierSizeGauge(t *testing.T) {
	c := NewCollector(nil, nil)
	defer c.Close()

	c.SetTierSize(TierL1, 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(c.tier.WithLabelValues(TierL1)))
	c.SetTierSize(TierL1, 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(c.tier.WithLabelValues(TierL1)))
}
