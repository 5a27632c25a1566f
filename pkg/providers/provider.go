package providers

import "context"

// Provider is the capability interface implemented by every backend adapter
// (OpenAI, Anthropic, Gemini). It translates the canonical ChatRequest into
// one backend-specific call and normalizes the reply into a ChatResponse.
//
// Implementations must be safe for concurrent use: a single adapter instance
// serves all in-flight calls for its provider, sharing only the underlying
// connection pool. All methods respect context cancellation.
type Provider interface {
	// SendChat issues exactly one completion call to the backend and returns
	// the normalized response. Non-success HTTP statuses surface as typed
	// errors (ProviderError, AuthError, RateLimitError); a context deadline
	// surfaces as TimeoutError, never conflated with a ParseError.
	//
	// The adapter does not retry. Retry policy is a caller concern; the
	// typed errors carry enough context (provider, status, body) for the
	// caller to decide.
	SendChat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// StreamChat issues one streaming session and returns a channel of
	// chunks. Chunks arrive in strict order; the channel is closed after
	// the final chunk. A mid-stream failure is delivered as a final chunk
	// with Error set. Cancelling the context stops delivery and closes the
	// underlying connection.
	StreamChat(ctx context.Context, req *ChatRequest) (<-chan *StreamChunk, error)

	// GetName returns the provider's configured name.
	GetName() string

	// GetType returns the adapter type (openai, anthropic, gemini).
	GetType() string

	// GetConfig returns the provider's configuration.
	GetConfig() ProviderConfig

	// Close releases pooled connections. The provider must not be used
	// after Close.
	Close() error
}
