package cache

import "strings"

// InvalidateByPattern evicts every key containing substr (plain substring
// match, not a regex) and returns how many were removed. An empty substr
// matches every key.
func (c *cache[V]) InvalidateByPattern(substr string) int {
	return c.evictWhere(func(n *node[V]) bool { return strings.Contains(n.key, substr) })
}

// InvalidateByCategory evicts every entry tagged with category.
func (c *cache[V]) InvalidateByCategory(category string) int {
	return c.evictWhere(func(n *node[V]) bool { return n.category == category })
}

// Clear evicts everything.
func (c *cache[V]) Clear() int {
	return c.evictWhere(func(*node[V]) bool { return true })
}

// evictWhere removes matching entries shard by shard; each shard is
// processed atomically, the store as a whole is not.
func (c *cache[V]) evictWhere(pred func(*node[V]) bool) int {
	if c.closed.Load() {
		return 0
	}
	total := 0
	for _, s := range c.shards {
		total += s.removeIf(pred, EvictInvalidate)
	}
	if total > 0 {
		c.opt.Metrics.Size(c.Len())
		c.opt.Logger.Info("cache invalidated", "count", total)
	}
	return total
}
