// This file implements FIFO eviction.

package eviction

type fifo struct {
	capacity int

	// queue keeps keys in insertion order; index 0 is the oldest key.
	queue []string

	// set tracks which keys are currently in the queue.
	set map[string]struct{}
}

func newFIFO(capacity int) *fifo {
	return &fifo{
		capacity: capacity,
		queue:    make([]string, 0, capacity),
		set:      make(map[string]struct{}, capacity),
	}
}

// OnGet does nothing: FIFO ignores reads completely.
func (f *fifo) OnGet(string) {}

// OnPut appends a new key to the queue. FIFO only cares about the first
// insertion; re-puts keep the original position. The oldest key is evicted
// when capacity is exceeded.
func (f *fifo) OnPut(k string) (string, bool) {
	if _, ok := f.set[k]; ok {
		return "", false
	}
	f.queue = append(f.queue, k)
	f.set[k] = struct{}{}

	if len(f.queue) <= f.capacity {
		return "", false
	}

	victim := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.set, victim)
	return victim, true
}

// Remove drops an explicitly deleted key while preserving queue order.
func (f *fifo) Remove(k string) {
	if _, ok := f.set[k]; !ok {
		return
	}
	delete(f.set, k)
	for i, v := range f.queue {
		if v == k {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			break
		}
	}
}

func (f *fifo) Len() int { return len(f.queue) }
