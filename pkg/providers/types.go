package providers

import "time"

// Message is a single entry in a conversation history.
// It is provider-agnostic and is transformed to each backend's wire format
// by the adapter. Order is meaningful (oldest to newest) and is forwarded
// to the backend verbatim.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`

	// Name optionally identifies which persona authored the message
	Name string `json:"name,omitempty"`
}

// TokenUsage tracks token consumption for one completed call.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is prompt + completion
	TotalTokens int `json:"total_tokens"`

	// CachedTokens is the number of prompt tokens served from the
	// provider-side prompt cache at a discounted rate. Cached tokens are
	// already counted inside PromptTokens.
	CachedTokens int `json:"cached_tokens,omitempty"`

	// Estimated is true when the backend did not report usage and the
	// counts were derived by the token estimator.
	Estimated bool `json:"estimated,omitempty"`
}

// ChatRequest is the canonical request issued to a provider adapter.
type ChatRequest struct {
	// Model is the model identifier (e.g., "gpt-4o-mini", "claude-3-5-haiku")
	Model string `json:"model"`

	// Messages is the conversation history, oldest first
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// PersonaName is the name the backend must answer as. Adapters append
	// an instruction message carrying it, and the normalizer forces the
	// speaker field to it on the way out. Required.
	PersonaName string `json:"persona_name"`

	// Stream requests incremental delivery of the response
	Stream bool `json:"stream,omitempty"`

	// StructuredOutput requests a schema-constrained output channel native
	// to the backend (function calling, tool use, or a response schema)
	// instead of free text.
	StructuredOutput bool `json:"structured_output,omitempty"`
}

// ChatResponse is the canonical response normalized from a backend reply.
type ChatResponse struct {
	// ID is the backend's response identifier
	ID string `json:"id"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Content is the generated text content (may be empty when the backend
	// answered exclusively through the structured channel)
	Content string `json:"content"`

	// StructuredPayload is the raw JSON emitted through the backend's
	// structured output channel (function-call arguments, tool-use input,
	// or schema-constrained text). Empty when the backend answered in
	// plain text.
	StructuredPayload string `json:"structured_payload,omitempty"`

	// FinishReason indicates why generation stopped (stop, length, tool_use)
	FinishReason string `json:"finish_reason"`

	// Usage contains token consumption reported by the backend, or an
	// estimate when the backend omitted it
	Usage TokenUsage `json:"usage"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`
}

// StreamChunk is a single increment in a streaming response.
// Chunks within one stream are delivered in strict arrival order.
type StreamChunk struct {
	// ID is the response identifier (same across all chunks)
	ID string `json:"id"`

	// Model is the model generating the response
	Model string `json:"model"`

	// Delta is the incremental text in this chunk
	Delta string `json:"delta"`

	// StructuredPayload is the completed JSON from the backend's structured
	// output channel, set once on the final chunk of a stream that answered
	// through a forced function/tool call. Argument fragments are
	// accumulated by the adapter rather than forwarded as text deltas.
	StructuredPayload string `json:"structured_payload,omitempty"`

	// FinishReason is set in the final chunk
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is set in the final chunk when the backend reports it
	Usage *TokenUsage `json:"usage,omitempty"`

	// Error is set if the stream failed; it is always the last chunk sent
	Error error `json:"-"`
}

// ProviderConfig contains configuration for a single provider adapter.
type ProviderConfig struct {
	// Name is the provider identifier (e.g., "openai", "anthropic", "gemini")
	Name string

	// Type is the adapter type (openai, anthropic, gemini)
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// Timeout bounds every outbound call. Required; a zero value is
	// replaced with DefaultTimeout.
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// DefaultTimeout is applied when a provider config carries no timeout.
// Every outbound call must be bounded.
const DefaultTimeout = 60 * time.Second

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop    = "stop"
	FinishReasonLength  = "length"
	FinishReasonToolUse = "tool_use"
)
