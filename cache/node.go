package cache

import (
	"time"

	"github.com/IvanBrykalov/freshcache/policy"
)

// Entry is a cached value with its storage timestamp and category tag.
// Entries are never mutated in place: a new Set replaces the entry wholesale.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
	Category string
}

// Result is what SmartGet hands back on a hit.
type Result[V any] struct {
	Value  V
	Fresh  bool
	Status policy.Status
	Age    time.Duration
}

// node is an intrusive doubly linked list element owned by a shard.
// The payload fields are written once, before the node is linked.
type node[V any] struct {
	key      string
	val      V
	category string

	// Storage time and absolute eviction deadline in UnixNano.
	stored int64
	exp    int64

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node[V]
	next *node[V]
}

func (n *node[V]) entry() Entry[V] {
	return Entry[V]{Value: n.val, StoredAt: time.Unix(0, n.stored), Category: n.category}
}

// age returns now-stored, clamped at zero for clocks that step backwards.
func (n *node[V]) age(now int64) time.Duration {
	if d := now - n.stored; d > 0 {
		return time.Duration(d)
	}
	return 0
}
