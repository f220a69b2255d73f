// This file implements ARC (Adaptive Replacement Cache) eviction.

package eviction

// ARC keeps four lists whose resident portion (T1+T2) never exceeds
// capacity:
//
//	T1: keys seen exactly once recently        (recency side, resident)
//	T2: keys seen at least twice recently      (frequency side, resident)
//	B1: ghost history of keys evicted from T1  (no payload)
//	B2: ghost history of keys evicted from T2  (no payload)
//
// A scalar p (0 <= p <= capacity) is the target size of T1. Every ghost hit
// adapts p: a B1 hit means recency was undervalued, so p grows; a B2 hit
// means frequency was undervalued, so p shrinks. The eviction decision
// therefore depends on recently-evicted history, not just on current
// residents — this is what lets ARC track shifting workloads where plain
// LRU or LFU stay stuck.

// arcNode is one key inside an arcList.
type arcNode struct {
	key  string
	prev *arcNode
	next *arcNode
}

// arcList is a doubly-linked list with O(1) lookup, used for all four ARC
// lists. Front is MRU, back is LRU.
type arcList struct {
	nodes map[string]*arcNode
	head  *arcNode
	tail  *arcNode
}

func newArcList() *arcList {
	return &arcList{nodes: make(map[string]*arcNode)}
}

func (l *arcList) len() int { return len(l.nodes) }

func (l *arcList) contains(k string) bool {
	_, ok := l.nodes[k]
	return ok
}

func (l *arcList) pushFront(k string) {
	n := &arcNode{key: k}
	l.nodes[k] = n
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *arcList) remove(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
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
	delete(l.nodes, k)
}

// popBack removes and returns the LRU key, or "" when empty.
func (l *arcList) popBack() string {
	if l.tail == nil {
		return ""
	}
	k := l.tail.key
	l.remove(k)
	return k
}

type arc struct {
	capacity int

	// p is the adaptive target size for T1.
	p int

	t1, t2 *arcList // resident
	b1, b2 *arcList // ghosts
}

func newARC(capacity int) *arc {
	return &arc{
		capacity: capacity,
		t1:       newArcList(),
		t2:       newArcList(),
		b1:       newArcList(),
		b2:       newArcList(),
	}
}

// OnGet promotes a resident hit into T2: one access in T1 proves the key is
// worth the frequency side, and a T2 hit refreshes its position.
func (a *arc) OnGet(k string) {
	switch {
	case a.t1.contains(k):
		a.t1.remove(k)
		a.t2.pushFront(k)
	case a.t2.contains(k):
		a.t2.remove(k)
		a.t2.pushFront(k)
	}
}

// OnPut admits a key, adapting p on ghost hits and running the replace step
// when the resident lists are full. At most one resident key is evicted per
// call and is returned to the tier.
func (a *arc) OnPut(k string) (string, bool) {
	// A write to a resident key behaves like an access.
	if a.t1.contains(k) || a.t2.contains(k) {
		a.OnGet(k)
		return "", false
	}

	c := a.capacity

	if a.b1.contains(k) {
		// Recency ghost hit: grow the T1 target.
		a.p = min(c, a.p+max(a.b2.len()/a.b1.len(), 1))
		victim := a.replace(false)
		a.b1.remove(k)
		a.t2.pushFront(k)
		return victim, victim != ""
	}

	if a.b2.contains(k) {
		// Frequency ghost hit: shrink the T1 target.
		a.p = max(0, a.p-max(a.b1.len()/a.b2.len(), 1))
		victim := a.replace(true)
		a.b2.remove(k)
		a.t2.pushFront(k)
		return victim, victim != ""
	}

	// Full miss: bound the directory before inserting into T1.
	victim := ""
	switch {
	case a.t1.len()+a.b1.len() == c:
		if a.t1.len() < c {
			a.b1.popBack()
			victim = a.replace(false)
		} else {
			// B1 is empty and T1 is full: drop T1's LRU outright,
			// without leaving a ghost.
			victim = a.t1.popBack()
		}
	case a.t1.len()+a.b1.len() < c &&
		a.t1.len()+a.t2.len()+a.b1.len()+a.b2.len() >= c:
		if a.t1.len()+a.t2.len()+a.b1.len()+a.b2.len() >= 2*c {
			a.b2.popBack()
		}
		victim = a.replace(false)
	}

	a.t1.pushFront(k)
	return victim, victim != ""
}

// replace demotes one resident key to its ghost list and returns it. The
// recency side gives up its LRU entry when T1 is over target (or exactly on
// target while handling a B2 hit); otherwise the frequency side pays.
// No-op when the resident lists still have room.
func (a *arc) replace(inB2 bool) string {
	if a.t1.len()+a.t2.len() < a.capacity {
		return ""
	}
	if a.t1.len() >= 1 && (a.t1.len() > a.p || (inB2 && a.t1.len() == a.p)) {
		k := a.t1.popBack()
		a.b1.pushFront(k)
		return k
	}
	k := a.t2.popBack()
	if k != "" {
		a.b2.pushFront(k)
	}
	return k
}

// Remove forgets an explicitly deleted key entirely, ghosts included. An
// explicit delete is not an eviction, so it leaves no history behind.
func (a *arc) Remove(k string) {
	a.t1.remove(k)
	a.t2.remove(k)
	a.b1.remove(k)
	a.b2.remove(k)
}

// Len counts resident keys only; ghosts hold no payload.
func (a *arc) Len() int { return a.t1.len() + a.t2.len() }
