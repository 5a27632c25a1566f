// Package server assembles the HTTP surface of the conversation engine:
// the respond endpoint, the operational cache control endpoint, cache
// metrics aggregation, health, and the Prometheus scrape endpoint, all
// behind a request-ID/logging/recovery middleware chain with graceful
// shutdown.
package server
