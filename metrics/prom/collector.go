package prom

import (
	"github.com/IvanBrykalov/freshcache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything that can produce a cache.Stats snapshot.
type StatsSource interface {
	Stats() cache.Stats
}

// StatsCollector exports a cache.Stats scan on every scrape.
// The scan is O(entries); keep scrape intervals reasonable for big caches.
type StatsCollector struct {
	src StatsSource

	keys     *prometheus.Desc
	pending  *prometheus.Desc
	catCount *prometheus.Desc
	catAge   *prometheus.Desc
	enabled  *prometheus.Desc
}

// NewStatsCollector builds a collector; register it with a prometheus.Registerer.
func NewStatsCollector(src StatsSource, ns, sub string, constLabels prometheus.Labels) *StatsCollector {
	name := func(n string) string { return prometheus.BuildFQName(ns, sub, n) }
	return &StatsCollector{
		src: src,
		keys: prometheus.NewDesc(name("keys"),
			"Resident entries by freshness status at scrape time",
			[]string{"status"}, constLabels),
		pending: prometheus.NewDesc(name("pending_refreshes"),
			"Categories with a refresh in flight",
			nil, constLabels),
		catCount: prometheus.NewDesc(name("category_entries"),
			"Resident entries per category",
			[]string{"category"}, constLabels),
		catAge: prometheus.NewDesc(name("category_avg_age_seconds"),
			"Average entry age per category",
			[]string{"category"}, constLabels),
		enabled: prometheus.NewDesc(name("enabled"),
			"1 when the cache serves reads, 0 when bypassed",
			nil, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.pending
	ch <- c.catCount
	ch <- c.catAge
	ch <- c.enabled
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.FreshKeys), "fresh")
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.StaleKeys), "stale")
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.ExpiredKeys), "expired")
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(len(st.PendingRefreshes)))
	for cat, cs := range st.ByCategory {
		ch <- prometheus.MustNewConstMetric(c.catCount, prometheus.GaugeValue, float64(cs.Count), cat)
		ch <- prometheus.MustNewConstMetric(c.catAge, prometheus.GaugeValue, cs.AvgAgeSeconds, cat)
	}
	enabled := 0.0
	if st.Enabled {
		enabled = 1
	}
	ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue, enabled)
}

var _ prometheus.Collector = (*StatsCollector)(nil)
