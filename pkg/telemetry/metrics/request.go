package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks respond-call processing.
//
// Metrics:
//   - roundtable_requests_total: request count by provider, model, status
//   - roundtable_request_duration_seconds: request duration histogram
//   - roundtable_request_tokens_total: tokens processed by type
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "requests_total",
				Help:      "Total number of respond calls processed",
			},
			[]string{"provider", "model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of respond calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "request_tokens_total",
				Help:      "Total number of tokens processed",
			},
			[]string{"provider", "model", "type"},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration, rm.tokensTotal)
	return rm
}

// ObserveRequest records one completed respond call.
func (rm *RequestMetrics) ObserveRequest(provider, model, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(provider, model, status).Inc()
	rm.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// AddTokens records token throughput for one call.
func (rm *RequestMetrics) AddTokens(provider, model string, prompt, completion, cached int) {
	rm.tokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	rm.tokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completion))
	if cached > 0 {
		rm.tokensTotal.WithLabelValues(provider, model, "cached").Add(float64(cached))
	}
}
