// Package handlers implements the HTTP surface: POST /v1/chat (respond,
// streaming via Server-Sent Events), POST /v1/cache (operational cache
// control), GET /v1/metrics/cache (aggregated cache metrics), and
// GET /healthz.
package handlers
