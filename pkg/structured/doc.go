// Package structured normalizes raw backend output into the canonical
// structured response contract. It is the single choke point where the
// speaker field is forced to the requesting persona's name.
package structured
