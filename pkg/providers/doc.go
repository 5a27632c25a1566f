// Package providers defines the provider-agnostic chat contract and the
// shared HTTP plumbing for backend adapters.
//
// Each supported backend (OpenAI, Anthropic, Gemini) lives in its own
// subpackage and implements the Provider interface: canonical ChatRequest
// in, canonical ChatResponse (or an ordered stream of chunks) out. Adapters
// append a persona self-identification instruction to every request and,
// when asked, open the schema-constrained output channel native to their
// backend rather than relying on free-text parsing.
//
// Failures are reported through a typed taxonomy: ProviderError for
// non-success statuses, AuthError, RateLimitError, TimeoutError (always
// distinct from ParseError), NetworkError, and StreamError for mid-stream
// failures. Adapters never retry; the types carry enough context for the
// caller to decide.
package providers
