// Package anthropic implements the provider adapter for Anthropic's
// Messages API. Structured output is requested through forced tool use;
// streaming uses the event-typed SSE protocol.
package anthropic
