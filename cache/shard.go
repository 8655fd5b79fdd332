package cache

import "sync"

// shard is an independent partition of the entry store with its own lock,
// map, and an intrusive doubly linked list (head=MRU, tail=LRU). The list
// only matters when a capacity is set.
type shard[V any] struct {
	// ---- guarded by mu ----
	mu   sync.RWMutex
	m    map[string]*node[V]
	head *node[V] // MRU
	tail *node[V] // LRU
	cap  int      // per-shard entry capacity (0 = unbounded)

	c *cache[V] // owner: clock, metrics, callbacks, resident counter
}

func newShard[V any](c *cache[V], capacity int) *shard[V] {
	return &shard[V]{
		m:   make(map[string]*node[V]),
		cap: capacity,
		c:   c,
	}
}

// set links n as MRU, replacing any entry under the same key.
func (s *shard[V]) set(n *node[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.m[n.key]; ok {
		s.unlink(old)
	} else {
		s.c.resident.Add(1)
	}
	s.m[n.key] = n
	s.pushFront(n)
	s.enforceCapacityLocked()
}

// get returns the live node for k. A node past its deadline is evicted and
// reported as a miss. On hit the node is promoted when capacity is bounded.
// The returned node's payload is immutable and may be read without the lock.
func (s *shard[V]) get(k string, now int64) (*node[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return nil, false
	}
	if n.exp != 0 && now > n.exp {
		s.evictLocked(n, EvictTTL)
		return nil, false
	}
	if s.cap > 0 {
		s.moveToFront(n)
	}
	return n, true
}

// remove deletes k if present; not counted as an eviction.
func (s *shard[V]) remove(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.deleteLocked(n)
	return true
}

// evictIfCurrent evicts n only if it is still the entry stored under its
// key, so a concurrent Set is never undone.
func (s *shard[V]) evictIfCurrent(n *node[V], reason EvictReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m[n.key] != n {
		return false
	}
	s.evictLocked(n, reason)
	return true
}

// removeIf evicts every node matching pred and returns how many went.
func (s *shard[V]) removeIf(pred func(*node[V]) bool, reason EvictReason) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, n := range s.m {
		if pred(n) {
			s.evictLocked(n, reason)
			removed++
		}
	}
	return removed
}

// sweep evicts every node past its deadline.
func (s *shard[V]) sweep(now int64) int {
	return s.removeIf(func(n *node[V]) bool { return n.exp != 0 && now > n.exp }, EvictTTL)
}

// appendNodes appends all resident nodes, expired ones included, to dst.
func (s *shard[V]) appendNodes(dst []*node[V]) []*node[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.m {
		dst = append(dst, n)
	}
	return dst
}

// liveKeys returns the keys whose deadline has not passed.
func (s *shard[V]) liveKeys(now int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.m))
	for k, n := range s.m {
		if n.exp == 0 || now <= n.exp {
			out = append(out, k)
		}
	}
	return out
}

// -------------------- internals (mu held) --------------------

func (s *shard[V]) pushFront(n *node[V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

func (s *shard[V]) moveToFront(n *node[V]) {
	if n == s.head {
		return
	}
	s.unlink(n)
	s.pushFront(n)
}

// unlink detaches n from the list; map bookkeeping is the caller's job.
func (s *shard[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (s *shard[V]) deleteLocked(n *node[V]) {
	s.unlink(n)
	delete(s.m, n.key)
	s.c.resident.Add(-1)
}

// evictLocked removes n, reports the eviction and calls OnEvict.
func (s *shard[V]) evictLocked(n *node[V], reason EvictReason) {
	s.deleteLocked(n)
	s.c.opt.Metrics.Evict(reason)
	if cb := s.c.opt.OnEvict; cb != nil {
		cb(n.key, n.entry(), reason)
	}
}

func (s *shard[V]) enforceCapacityLocked() {
	for s.cap > 0 && len(s.m) > s.cap && s.tail != nil {
		s.evictLocked(s.tail, EvictCapacity)
	}
}
