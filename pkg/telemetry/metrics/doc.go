// Package metrics exports the engine's Prometheus metrics: respond-call
// counts, durations and token throughput, accumulated cost and cache
// discount, and snapshot cache activity.
package metrics
