package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/IvanBrykalov/freshcache/policy"
	"go.opentelemetry.io/otel/trace"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictTTL - the entry outlived its category horizon (TTL+StaleTTL),
	// either on read or during a sweep.
	EvictTTL EvictReason = iota
	// EvictCapacity - removed to satisfy Options.Capacity.
	EvictCapacity
	// EvictInvalidate - removed by InvalidateByPattern/InvalidateByCategory/Clear.
	EvictInvalidate
)

func (r EvictReason) String() string {
	switch r {
	case EvictTTL:
		return "ttl"
	case EvictCapacity:
		return "capacity"
	case EvictInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}

// RefreshOutcome is the result of one refresh callback run.
type RefreshOutcome int

const (
	RefreshOK RefreshOutcome = iota
	RefreshFailed
)

func (o RefreshOutcome) String() string {
	if o == RefreshOK {
		return "ok"
	}
	return "failed"
}

// RefreshFunc repopulates the cache for one category, typically by fetching
// from the source of truth and calling SmartSet. It must be idempotent and
// should bound its own run time: a callback that never returns leaves its
// category pending forever.
type RefreshFunc func(ctx context.Context) error

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	// Hit is called for every SmartGet/Get that returns a value.
	Hit(status policy.Status)
	Miss()
	Evict(reason EvictReason)
	// Size reports the number of resident entries after a mutation.
	Size(entries int)
	// Refresh is called when a refresh callback returns.
	Refresh(category string, outcome RefreshOutcome, took time.Duration)
	// PolicyMiss is called the first time a category without a policy is seen.
	PolicyMiss(category string)
}

// DefaultSweepInterval is the janitor period used when
// Options.SweepInterval is zero.
const DefaultSweepInterval = time.Minute

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache. Zero values are safe; defaults applied in New:
//   - nil Policies -> every category uses policy.Fallback
//   - Shards <= 0  -> auto (rounded up to power of two)
//   - SweepInterval 0 -> DefaultSweepInterval
//   - nil Metrics  -> NoopMetrics
//   - nil Logger   -> logger.WithComponent("cache")
//   - nil Tracer   -> global OpenTelemetry tracer
type Options[V any] struct {
	// Policies is the static category policy table.
	Policies *policy.Registry

	// Disabled turns the cache into a pass-through: reads miss and writes
	// are dropped. It can be flipped later with SetEnabled.
	Disabled bool

	// Shards defines the number of shards. If 0, ≈ 2*GOMAXPROCS.
	Shards int

	// Capacity bounds the number of entries (LRU eviction). 0 = unbounded;
	// entries are then bounded only by their category horizon.
	Capacity int

	// SweepInterval is how often a janitor purges entries past their
	// horizon even when nobody reads them. 0 = DefaultSweepInterval;
	// negative disables the janitor, leaving lazy expiry on read only.
	SweepInterval time.Duration

	// Clone, when set, copies every value handed out by Get/SmartGet.
	// Without it values are shared and callers must treat them as immutable.
	Clone func(V) V

	// OnEvict is called on eviction under the shard lock; keep it lightweight.
	// Explicit Delete is not an eviction.
	OnEvict func(key string, e Entry[V], reason EvictReason)

	// OnRefreshError is called after a refresh callback fails or panics,
	// outside any lock.
	OnRefreshError func(category string, err error)

	// Observability
	Metrics Metrics
	Logger  *slog.Logger
	Tracer  trace.Tracer

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}
