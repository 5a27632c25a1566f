// Package costs prices token usage. It holds the per-1K-token pricing
// table (built-in defaults, YAML overlay, fsnotify hot reload) and the
// calculator that turns usage into a cost breakdown, with the prompt-cache
// discount applied as a rate difference so cached tokens are never billed
// twice.
package costs
