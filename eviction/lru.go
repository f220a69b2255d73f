// This file implements LRU eviction.

package eviction

// lruNode represents one key inside the LRU structure. A doubly-linked list
// tracks usage order so moves are O(1).
type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// lru is the concrete implementation of the LRU eviction policy.
type lru struct {
	capacity int

	// nodes maps cache keys to their list nodes for O(1) lookup.
	nodes map[string]*lruNode

	// head points to the MOST recently used key.
	head *lruNode

	// tail points to the LEAST recently used key.
	tail *lruNode
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		nodes:    make(map[string]*lruNode),
	}
}

// OnGet marks an accessed key as most recently used.
func (l *lru) OnGet(k string) {
	if n, ok := l.nodes[k]; ok {
		l.moveToFront(n)
	}
}

// OnPut admits a key at the front of the list. A re-put of an existing key
// just refreshes its position. If the list now exceeds capacity, the tail
// (least recently used) key is evicted and returned.
func (l *lru) OnPut(k string) (string, bool) {
	if n, ok := l.nodes[k]; ok {
		l.moveToFront(n)
		return "", false
	}

	n := &lruNode{key: k}
	l.nodes[k] = n
	l.addFront(n)

	if len(l.nodes) <= l.capacity {
		return "", false
	}

	victim := l.tail.key
	l.remove(l.tail)
	delete(l.nodes, victim)
	return victim, true
}

// Remove drops a key that was explicitly deleted, keeping the internal
// state consistent.
func (l *lru) Remove(k string) {
	if n, ok := l.nodes[k]; ok {
		l.remove(n)
		delete(l.nodes, k)
	}
}

func (l *lru) Len() int { return len(l.nodes) }

func (l *lru) addFront(n *lruNode) {
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru) remove(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *lru) moveToFront(n *lruNode) {
	l.remove(n)
	l.addFront(n)
}
