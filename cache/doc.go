// Package cache provides a freshness-aware, sharded in-memory cache for
// semi-static data categories (prices, safety scores, hazard guides,
// regulatory feeds) with stale-while-revalidate reads, refresh-ahead, and
// single-flight background refresh per category.
//
// Design
//
//   - Freshness: every entry carries a category tag. The category's
//     policy.Policy splits an entry's life into Fresh (age <= TTL), Stale
//     (age <= TTL+StaleTTL, still served) and Expired (evicted on next touch).
//     Categories without a policy use policy.Fallback.
//
//   - Storage: the store is split into shards, each protected by an RWMutex
//     and holding a map plus an intrusive MRU↔LRU list. Every entry gets an
//     absolute deadline of StoredAt+TTL+StaleTTL; reads past it evict lazily
//     and a janitor (every Options.SweepInterval, one minute by default)
//     purges unread ones.
//     Options.Capacity optionally bounds the entry count with LRU eviction.
//
//   - Refresh: RegisterCallback installs one RefreshFunc per category.
//     SmartGet fires TriggerBackgroundRefresh once an entry's age crosses
//     TTL*RefreshAhead. At most one refresh per category runs at a time; the
//     pending set is the only synchronization point. Background refreshes run
//     on a detached context, so they outlive the request that triggered them.
//     Failures and panics are logged, counted and passed to
//     Options.OnRefreshError; they never reach readers.
//
//   - Invalidation: InvalidateByPattern (substring) and InvalidateByCategory.
//
//   - Observability: Stats scans the store; Options.Metrics receives
//     Hit/Miss/Evict/Size/Refresh signals (see metrics/prom); refreshes are
//     traced with OpenTelemetry.
//
// Basic usage
//
//	reg := policy.Default()
//	c := cache.New[[]byte](cache.Options[[]byte]{Policies: reg})
//	defer c.Close()
//
//	c.RegisterCallback(policy.FuelPrices, func(ctx context.Context) error {
//	    b, err := fetchFuelPrices(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    c.SmartSet("fuel:national", b, policy.FuelPrices)
//	    return nil
//	})
//
//	if r, ok := c.SmartGet("fuel:national", policy.FuelPrices); ok {
//	    _ = r.Value // possibly stale; r.Fresh tells which
//	} else {
//	    // miss: go to the source of truth
//	}
//
// Values
//
// Values are shared with callers. Treat everything stored as immutable, or
// set Options.Clone to copy on every read.
package cache
