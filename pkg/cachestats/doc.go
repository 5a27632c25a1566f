// Package cachestats records cache hit/miss events with the cost each
// hit avoided, and aggregates them into metrics summaries: totals,
// overall hit rate, saved cost, per-period buckets (hour, day, week,
// month) and a per-provider breakdown. Events are append-only; stores
// are provided in-memory and on SQLite.
package cachestats
