// Package metrics exposes coordinator statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edukit/versioned-cache/cache"
)

// StatsSource yields a per-namespace statistics snapshot.
type StatsSource interface {
	Stats() map[string]cache.Stats
}

// Collector is a prometheus.Collector over a coordinator's per-namespace
// counters. Register it once per process:
//
//	prometheus.MustRegister(metrics.NewCollector(coordinator))
type Collector struct {
	source StatsSource

	localHits     *prometheus.Desc
	localMisses   *prometheus.Desc
	remoteHits    *prometheus.Desc
	remoteMisses  *prometheus.Desc
	localSize     *prometheus.Desc
	loads         *prometheus.Desc
	invalidations *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source StatsSource) *Collector {
	labels := []string{"namespace"}
	return &Collector{
		source:        source,
		localHits:     prometheus.NewDesc("cache_local_hits_total", "Local-tier cache hits.", labels, nil),
		localMisses:   prometheus.NewDesc("cache_local_misses_total", "Local-tier cache misses.", labels, nil),
		remoteHits:    prometheus.NewDesc("cache_remote_hits_total", "Shared-tier cache hits.", labels, nil),
		remoteMisses:  prometheus.NewDesc("cache_remote_misses_total", "Shared-tier cache misses.", labels, nil),
		localSize:     prometheus.NewDesc("cache_local_entries", "Current local-tier entry count.", labels, nil),
		loads:         prometheus.NewDesc("cache_loads_total", "Loader invocations on full misses.", labels, nil),
		invalidations: prometheus.NewDesc("cache_invalidations_total", "Invalidations applied locally.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.localHits
	ch <- c.localMisses
	ch <- c.remoteHits
	ch <- c.remoteMisses
	ch <- c.localSize
	ch <- c.loads
	ch <- c.invalidations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for namespace, stats := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(c.localHits, prometheus.CounterValue, float64(stats.LocalHits), namespace)
		ch <- prometheus.MustNewConstMetric(c.localMisses, prometheus.CounterValue, float64(stats.LocalMisses), namespace)
		ch <- prometheus.MustNewConstMetric(c.remoteHits, prometheus.CounterValue, float64(stats.RemoteHits), namespace)
		ch <- prometheus.MustNewConstMetric(c.remoteMisses, prometheus.CounterValue, float64(stats.RemoteMisses), namespace)
		ch <- prometheus.MustNewConstMetric(c.localSize, prometheus.GaugeValue, float64(stats.LocalSize), namespace)
		ch <- prometheus.MustNewConstMetric(c.loads, prometheus.CounterValue, float64(stats.Loads), namespace)
		ch <- prometheus.MustNewConstMetric(c.invalidations, prometheus.CounterValue, float64(stats.Invalidations), namespace)
	}
}
