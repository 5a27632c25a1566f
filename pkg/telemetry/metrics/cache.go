package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the snapshot cache.
//
// Metrics:
//   - roundtable_cache_operations_total: cache lookups by outcome
//   - roundtable_cache_entries: current entry count
//   - roundtable_cache_saved_cost_usd_total: cost avoided by hits
type CacheMetrics struct {
	operationsTotal *prometheus.CounterVec
	entries         prometheus.Gauge
	savedCostTotal  prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_operations_total",
				Help:      "Total cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "cache_entries",
				Help:      "Current number of cache entries",
			},
		),

		savedCostTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_saved_cost_usd_total",
				Help:      "Accumulated cost avoided by cache hits in USD",
			},
		),
	}

	registry.MustRegister(cm.operationsTotal, cm.entries, cm.savedCostTotal)
	return cm
}

// ObserveHit records a cache hit and the cost it avoided.
func (cm *CacheMetrics) ObserveHit(savedCost float64) {
	cm.operationsTotal.WithLabelValues("hit").Inc()
	if savedCost > 0 {
		cm.savedCostTotal.Add(savedCost)
	}
}

// ObserveMiss records a cache miss.
func (cm *CacheMetrics) ObserveMiss() {
	cm.operationsTotal.WithLabelValues("miss").Inc()
}

// SetEntries updates the current entry count.
func (cm *CacheMetrics) SetEntries(n int) {
	cm.entries.Set(float64(n))
}
