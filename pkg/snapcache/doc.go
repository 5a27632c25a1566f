// Package snapcache is a short-lived key-value cache for persona and
// conversation snapshots. Entries carry a per-entry TTL (15 minutes by
// default), expire lazily on read, and are swept eagerly on every
// mutating operation. Capacity is bounded with LRU eviction. Keys with
// a registered prefix loader fetch through to the backing store on a
// miss. All operations are single-key atomic; there are no cross-key
// transactions.
package snapcache
