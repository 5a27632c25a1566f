// Package telemetry groups the engine's observability concerns:
// structured logging (telemetry/logging) and Prometheus metrics
// (telemetry/metrics).
package telemetry
