package cache

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/freshcache/internal/inflight"
	"github.com/IvanBrykalov/freshcache/internal/logger"
	"github.com/IvanBrykalov/freshcache/internal/util"
	"github.com/IvanBrykalov/freshcache/policy"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/IvanBrykalov/freshcache/cache"

// cache is the freshness-aware service object: a sharded entry store, the
// category callback registry and the pending refresh set.
// All methods are safe for concurrent use by multiple goroutines.
type cache[V any] struct {
	shards   []*shard[V]
	resident atomic.Int64
	enabled  atomic.Bool
	closed   atomic.Bool

	opt Options[V]
	reg *policy.Registry

	cbMu      sync.RWMutex
	callbacks map[string]RefreshFunc

	// pending refresh set, one flight per category
	flights inflight.Group[string]

	// categories already reported as missing a policy
	gaps sync.Map

	// detached context for background refreshes; never cancelled
	base context.Context

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics  -> NoopMetrics
//   - nil Logger   -> logger.WithComponent("cache")
//   - nil Tracer   -> otel.Tracer for this package
//   - Shards <= 0  -> auto, rounded up to the next power of two
//   - SweepInterval 0 -> DefaultSweepInterval (< 0 disables the janitor)
func New[V any](opt Options[V]) Cache[V] {
	if opt.Capacity < 0 {
		panic("cache: Capacity must be >= 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = logger.WithComponent("cache")
	}
	if opt.Tracer == nil {
		opt.Tracer = otel.Tracer(tracerName)
	}
	if opt.SweepInterval == 0 {
		opt.SweepInterval = DefaultSweepInterval
	}

	c := &cache[V]{
		opt:       opt,
		reg:       opt.Policies,
		callbacks: make(map[string]RefreshFunc),
		base:      context.Background(),
		stop:      make(chan struct{}),
	}
	c.enabled.Store(!opt.Disabled)

	n := util.ShardCount(opt.Shards)
	perShardCap := 0
	if opt.Capacity > 0 {
		perShardCap = (opt.Capacity + n - 1) / n // split capacity evenly (ceil)
	}
	c.shards = make([]*shard[V], n)
	for i := range c.shards {
		c.shards[i] = newShard(c, perShardCap)
	}

	if opt.SweepInterval > 0 {
		go c.janitor(opt.SweepInterval)
	}
	return c
}

// ---- entry store ----

// Get returns the entry for key. An entry past its category horizon is
// evicted and reported as a miss.
func (c *cache[V]) Get(key string) (Entry[V], bool) {
	if !c.active() {
		return Entry[V]{}, false
	}
	n, ok := c.getShard(key).get(key, c.now())
	if !ok {
		c.opt.Metrics.Miss()
		return Entry[V]{}, false
	}
	e := n.entry()
	c.opt.Metrics.Hit(c.reg.Status(n.category, n.age(c.now())))
	e.Value = c.clone(e.Value)
	return e, true
}

// Set stores value under key with StoredAt = now. The entry is bounded by
// the category horizon, or the fallback horizon for unknown categories.
func (c *cache[V]) Set(key string, value V, category string) {
	if !c.active() {
		return
	}
	c.checkPolicy(category)
	now := c.now()
	n := &node[V]{
		key:      key,
		val:      value,
		category: category,
		stored:   now,
		exp:      now + int64(c.reg.Horizon(category)),
	}
	c.getShard(key).set(n)
	c.opt.Metrics.Size(c.Len())
}

// Delete removes key and reports whether it was present.
func (c *cache[V]) Delete(key string) bool {
	if c.closed.Load() {
		return false
	}
	ok := c.getShard(key).remove(key)
	if ok {
		c.opt.Metrics.Size(c.Len())
	}
	return ok
}

// Keys yields the live keys. Each shard is snapshotted when the iteration
// reaches it, so later writes to unvisited shards may or may not show up.
func (c *cache[V]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, s := range c.shards {
			for _, k := range s.liveKeys(c.now()) {
				if !yield(k) {
					return
				}
			}
		}
	}
}

// Len returns the total number of resident entries across all shards.
func (c *cache[V]) Len() int { return int(c.resident.Load()) }

// ---- coordinator ----

// SmartGet returns the best available value for key, judged against
// category's policy. Expired entries are evicted and reported as a miss.
// Crossing the refresh-ahead threshold fires a background refresh for the
// category without waiting for it.
func (c *cache[V]) SmartGet(key, category string) (Result[V], bool) {
	if !c.active() {
		return Result[V]{}, false
	}
	s := c.getShard(key)
	now := c.now()
	n, ok := s.get(key, now)
	if !ok {
		c.opt.Metrics.Miss()
		return Result[V]{}, false
	}

	c.checkPolicy(category)
	age := n.age(now)
	status := c.reg.Status(category, age)
	if status == policy.Expired {
		s.evictIfCurrent(n, EvictTTL)
		c.opt.Metrics.Miss()
		return Result[V]{}, false
	}

	if c.reg.ShouldRefreshAhead(category, age) && !c.flights.Has(category) {
		c.TriggerBackgroundRefresh(category)
	}

	c.opt.Metrics.Hit(status)
	return Result[V]{
		Value:  c.clone(n.val),
		Fresh:  status == policy.Fresh,
		Status: status,
		Age:    age,
	}, true
}

// SmartSet stores a freshly fetched value for category.
func (c *cache[V]) SmartSet(key string, value V, category string) {
	c.Set(key, value, category)
}

// ---- lifecycle ----

// Enabled reports whether the cache serves reads and accepts writes.
func (c *cache[V]) Enabled() bool { return c.enabled.Load() }

// SetEnabled flips the global pass-through switch. Disabling does not drop
// resident entries; they become visible again when re-enabled, subject to
// their normal expiry.
func (c *cache[V]) SetEnabled(on bool) {
	if c.enabled.Swap(on) != on {
		c.opt.Logger.Warn("cache enable flag changed", "enabled", on)
	}
}

// Close stops the janitor and marks the cache closed. Future operations are
// ignored. In-flight refreshes are left to run to completion; use Wait to
// observe them.
func (c *cache[V]) Close() error {
	c.closed.Store(true)
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// Wait blocks until no refresh is in flight or ctx is done.
func (c *cache[V]) Wait(ctx context.Context) error {
	return c.flights.Wait(ctx)
}

// ---- helpers ----

func (c *cache[V]) active() bool {
	return c.enabled.Load() && !c.closed.Load()
}

// getShard picks a shard by hashing the key; len(c.shards) is a power of two.
func (c *cache[V]) getShard(k string) *shard[V] {
	return c.shards[util.ShardIndex(k, len(c.shards))]
}

func (c *cache[V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (c *cache[V]) clone(v V) V {
	if c.opt.Clone == nil {
		return v
	}
	return c.opt.Clone(v)
}

// checkPolicy reports a category without a policy once per category.
func (c *cache[V]) checkPolicy(category string) {
	if _, ok := c.reg.Lookup(category); ok {
		return
	}
	if _, seen := c.gaps.LoadOrStore(category, struct{}{}); seen {
		return
	}
	c.opt.Metrics.PolicyMiss(category)
	c.opt.Logger.Warn("no freshness policy for category; using fallback",
		"category", category,
		"ttl", policy.Fallback.TTL,
		"stale_ttl", policy.Fallback.StaleTTL,
	)
}

// janitor purges entries past their horizon until Close.
func (c *cache[V]) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := c.sweep(); n > 0 {
				c.opt.Logger.Debug("swept expired entries", "count", n)
			}
		case <-c.stop:
			return
		}
	}
}

func (c *cache[V]) sweep() int {
	now := c.now()
	total := 0
	for _, s := range c.shards {
		total += s.sweep(now)
	}
	if total > 0 {
		c.opt.Metrics.Size(c.Len())
	}
	return total
}
