package cache

import (
	"time"

	"github.com/IvanBrykalov/freshcache/policy"
)

// CategoryStats aggregates the entries of one category.
type CategoryStats struct {
	Label         string        `json:"label,omitempty"`
	Count         int           `json:"count"`
	AvgAge        time.Duration `json:"-"`
	AvgAgeSeconds float64       `json:"avgAgeSeconds"`
}

// Stats is a point-in-time view of the cache built by a full scan.
//
// Every resident entry is classified against its own category policy and
// counted in exactly one of FreshKeys, StaleKeys or ExpiredKeys, so their
// sum is TotalKeys. Expired entries are ones not yet evicted by a read or a
// sweep; the scan itself never evicts.
type Stats struct {
	Enabled          bool                     `json:"enabled"`
	TotalKeys        int                      `json:"totalKeys"`
	FreshKeys        int                      `json:"freshKeys"`
	StaleKeys        int                      `json:"staleKeys"`
	ExpiredKeys      int                      `json:"expiredKeys"`
	PendingRefreshes []string                 `json:"pendingRefreshes"`
	ByCategory       map[string]CategoryStats `json:"byCategory"`
}

// Stats scans every entry. Cost is O(entries); it holds one shard read lock
// at a time.
func (c *cache[V]) Stats() Stats {
	st := Stats{
		Enabled:          c.Enabled(),
		PendingRefreshes: c.Pending(),
		ByCategory:       make(map[string]CategoryStats),
	}

	ageSum := make(map[string]time.Duration)
	var nodes []*node[V]
	for _, s := range c.shards {
		nodes = s.appendNodes(nodes[:0])
		now := c.now()
		for _, n := range nodes {
			age := n.age(now)
			switch c.reg.Status(n.category, age) {
			case policy.Fresh:
				st.FreshKeys++
			case policy.Stale:
				st.StaleKeys++
			default:
				st.ExpiredKeys++
			}
			cs := st.ByCategory[n.category]
			cs.Count++
			st.ByCategory[n.category] = cs
			ageSum[n.category] += age
			st.TotalKeys++
		}
	}

	for cat, cs := range st.ByCategory {
		cs.AvgAge = ageSum[cat] / time.Duration(cs.Count)
		cs.AvgAgeSeconds = cs.AvgAge.Seconds()
		cs.Label = c.reg.Effective(cat).Label
		st.ByCategory[cat] = cs
	}
	return st
}
