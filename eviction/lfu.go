// This file implements LFU eviction.

package eviction

// lfuNode represents one key tracked by LFU.
type lfuNode struct {
	key  string
	freq int
}

type lfu struct {
	capacity int

	// nodes lets us quickly find the node for a key.
	nodes map[string]*lfuNode

	// freqMap groups keys by how many times they were accessed.
	freqMap map[int]map[string]*lfuNode

	// minFreq tracks the smallest frequency currently present, so eviction
	// never has to scan the whole map.
	minFreq int
}

func newLFU(capacity int) *lfu {
	return &lfu{
		capacity: capacity,
		nodes:    make(map[string]*lfuNode),
		freqMap:  make(map[int]map[string]*lfuNode),
	}
}

// OnGet moves the accessed key from its old frequency bucket to the next
// one, bumping minFreq when the old bucket empties out.
func (l *lfu) OnGet(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}

	old := n.freq
	n.freq++

	delete(l.freqMap[old], k)
	if len(l.freqMap[old]) == 0 {
		delete(l.freqMap, old)
		if l.minFreq == old {
			l.minFreq++
		}
	}

	if l.freqMap[n.freq] == nil {
		l.freqMap[n.freq] = make(map[string]*lfuNode)
	}
	l.freqMap[n.freq][k] = n
}

// OnPut admits a new key at frequency 1. When the policy is at capacity it
// first evicts an arbitrary key from the minFreq bucket, then resets
// minFreq to 1 for the newcomer.
func (l *lfu) OnPut(k string) (string, bool) {
	if _, ok := l.nodes[k]; ok {
		// Already tracked; the write counts as an access.
		l.OnGet(k)
		return "", false
	}

	victim := ""
	if len(l.nodes) >= l.capacity {
		victim = l.evict()
	}

	n := &lfuNode{key: k, freq: 1}
	l.nodes[k] = n
	if l.freqMap[1] == nil {
		l.freqMap[1] = make(map[string]*lfuNode)
	}
	l.freqMap[1][k] = n
	l.minFreq = 1

	return victim, victim != ""
}

// evict removes one key from the lowest-frequency bucket. Ties within the
// bucket are broken arbitrarily.
func (l *lfu) evict() string {
	for k := range l.freqMap[l.minFreq] {
		delete(l.freqMap[l.minFreq], k)
		if len(l.freqMap[l.minFreq]) == 0 {
			delete(l.freqMap, l.minFreq)
		}
		delete(l.nodes, k)
		return k
	}
	return ""
}

// Remove drops a key that was explicitly deleted.
func (l *lfu) Remove(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
	delete(l.freqMap[n.freq], k)
	if len(l.freqMap[n.freq]) == 0 {
		delete(l.freqMap, n.freq)
	}
	delete(l.nodes, k)
}

func (l *lfu) Len() int { return len(l.nodes) }
