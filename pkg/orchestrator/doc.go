// Package orchestrator is the top-level respond facade. Given a persona
// and a message history it resolves the right provider adapter, issues
// the call (streaming or not), forwards chunks to the caller's sink in
// arrival order, normalizes the output into the canonical structured
// response, prices the usage, and appends a cost record best-effort.
// Every response carries a cost figure, even when usage was estimated.
package orchestrator
