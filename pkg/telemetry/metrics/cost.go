package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CostMetrics tracks accumulated spend.
//
// Metrics:
//   - roundtable_cost_usd_total: accumulated cost by provider and model
//   - roundtable_cache_discount_usd_total: accumulated prompt-cache discount
type CostMetrics struct {
	costTotal     *prometheus.CounterVec
	discountTotal *prometheus.CounterVec
}

// NewCostMetrics creates and registers cost metrics.
func NewCostMetrics(registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cost_usd_total",
				Help:      "Accumulated cost in USD",
			},
			[]string{"provider", "model"},
		),

		discountTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_discount_usd_total",
				Help:      "Accumulated prompt-cache discount in USD",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(cm.costTotal, cm.discountTotal)
	return cm
}

// AddCost records spend for one completed call.
func (cm *CostMetrics) AddCost(provider, model string, cost, discount float64) {
	if cost > 0 {
		cm.costTotal.WithLabelValues(provider, model).Add(cost)
	}
	if discount > 0 {
		cm.discountTotal.WithLabelValues(provider, model).Add(discount)
	}
}
