// Command roundtable runs the multi-persona conversation engine.
//
// The server normalizes chat requests across OpenAI, Anthropic, and
// Gemini backends, routes persona turns, records per-request costs,
// and exposes an HTTP API:
//   - POST /v1/chat          single or streaming persona responses
//   - POST /v1/cache         snapshot cache control
//   - GET  /v1/metrics/cache cache hit/miss aggregation
//   - GET  /healthz          liveness and registered providers
//   - GET  /metrics          Prometheus scrape endpoint
package main

func main() {
	Execute()
}
