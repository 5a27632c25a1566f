package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric exported by the engine.
const Namespace = "roundtable"

// Collector owns the Prometheus registry and all engine metric groups.
type Collector struct {
	registry *prometheus.Registry

	// Request tracks respond-call counts, durations and token throughput.
	Request *RequestMetrics

	// Cost tracks accumulated spend per provider and model.
	Cost *CostMetrics

	// Cache tracks snapshot cache hits, misses and saved cost.
	Cache *CacheMetrics
}

// NewCollector creates a collector with its own registry. A nil registry
// argument creates a fresh one including the standard Go runtime and
// process collectors.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Collector{
		registry: registry,
		Request:  NewRequestMetrics(registry),
		Cost:     NewCostMetrics(registry),
		Cache:    NewCacheMetrics(registry),
	}
}

// Registry exposes the underlying registry for additional registrations.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
