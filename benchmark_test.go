package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	cache "github.com/krisalay/distributed-cache"
)

func benchCache(b *testing.B) *cache.TieredCache {
	b.Helper()
	cfg := testConfig()
	cfg.Layers.L1.MaxSize = 4096
	cfg.Layers.L2.MaxSize = 16384
	c, err := cache.New(cfg,
		cache.WithRemote(newFakeRemote()),
		cache.WithTransport((&memHub{}).transport()),
	)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}

func BenchmarkGetL1Hit(b *testing.B) {
	c := benchCache(b)
	ctx := context.Background()
	if err := c.Set(ctx, "hot", "value", time.Hour); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.Get(ctx, "hot"); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkSet(b *testing.B) {
	c := benchCache(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Set(ctx, "k"+strconv.Itoa(i%4096), "value", time.Hour); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetMissToRemote(b *testing.B) {
	c := benchCache(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Unique keys keep every lookup on the full miss path.
		if _, err := c.Get(ctx, "miss:"+strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}
	}
}
