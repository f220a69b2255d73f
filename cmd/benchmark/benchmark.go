// Compares the eviction policies' hit rates under a skewed synthetic
// workload. ARC should land between (or above) LRU and LFU as the access
// pattern mixes recency and frequency.
package main

import (
	"fmt"
	"math/rand"

	"github.com/krisalay/distributed-cache/eviction"
)

const (
	capacity = 256
	accesses = 200_000
	keyspace = 4096
)

func main() {
	src := rand.New(rand.NewSource(1))
	workload := makeWorkload(src)

	for _, pt := range []eviction.PolicyType{eviction.LRU, eviction.LFU, eviction.ARC, eviction.FIFO} {
		rate := run(pt, workload)
		fmt.Printf("%-5s capacity=%d accesses=%d hit-rate=%.2f%%\n", pt, capacity, accesses, rate*100)
	}
}

// makeWorkload interleaves a zipf-skewed hot set (frequency-friendly) with
// sequential sweeps (recency-friendly), the mix ARC was built for.
func makeWorkload(src *rand.Rand) []string {
	zipf := rand.NewZipf(src, 1.2, 1, keyspace-1)
	keys := make([]string, 0, accesses)
	sweep := 0
	for i := 0; i < accesses; i++ {
		if i%4 == 0 {
			keys = append(keys, fmt.Sprintf("sweep:%d", sweep%keyspace))
			sweep++
		} else {
			keys = append(keys, fmt.Sprintf("hot:%d", zipf.Uint64()))
		}
	}
	return keys
}

// run replays the workload against one policy, tracking residency beside
// it the way a tier would.
func run(pt eviction.PolicyType, workload []string) float64 {
	pol, err := eviction.New(pt, capacity)
	if err != nil {
		panic(err)
	}

	resident := make(map[string]struct{}, capacity)
	hits := 0
	for _, k := range workload {
		if _, ok := resident[k]; ok {
			hits++
			pol.OnGet(k)
			continue
		}
		if victim, evicted := pol.OnPut(k); evicted {
			delete(resident, victim)
		}
		resident[k] = struct{}{}
	}
	return float64(hits) / float64(len(workload))
}
