// Package ledger persists per-call cost records. A record is written once
// per completed provider call and never mutated; aggregation queries run
// over the immutable history. Two Store implementations are provided: an
// in-memory store for tests and ephemeral deployments, and a SQLite store
// with WAL mode for durability. Retention runs scheduled purges of
// expired records.
package ledger
