package prom

import (
	"time"

	"github.com/IvanBrykalov/freshcache/cache"
	"github.com/IvanBrykalov/freshcache/policy"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits       *prometheus.CounterVec
	misses     prometheus.Counter
	evicts     *prometheus.CounterVec
	sizeEnt    prometheus.Gauge
	refreshes  *prometheus.CounterVec
	refreshDur *prometheus.HistogramVec
	policyMiss *prometheus.CounterVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "hits_total",
				Help:        "Cache hits by freshness status",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses, including entries found expired",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "refreshes_total",
				Help:        "Refresh callback runs by category and outcome",
				ConstLabels: constLabels,
			},
			[]string{"category", "outcome"},
		),
		refreshDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "refresh_duration_seconds",
				Help:        "Refresh callback run time",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
				ConstLabels: constLabels,
			},
			[]string{"category"},
		),
		policyMiss: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "policy_misses_total",
				Help:        "Categories used without a registered freshness policy",
				ConstLabels: constLabels,
			},
			[]string{"category"},
		),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.sizeEnt, a.refreshes, a.refreshDur, a.policyMiss)
	return a
}

// Hit increments the hit counter for the entry's freshness status.
func (a *Adapter) Hit(s policy.Status) { a.hits.WithLabelValues(s.String()).Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the resident entries gauge.
func (a *Adapter) Size(entries int) { a.sizeEnt.Set(float64(entries)) }

// Refresh counts a callback run and observes its duration.
func (a *Adapter) Refresh(category string, o cache.RefreshOutcome, took time.Duration) {
	a.refreshes.WithLabelValues(category, o.String()).Inc()
	a.refreshDur.WithLabelValues(category).Observe(took.Seconds())
}

// PolicyMiss counts a category seen without a policy.
func (a *Adapter) PolicyMiss(category string) {
	a.policyMiss.WithLabelValues(category).Inc()
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
