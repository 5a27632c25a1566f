package ledger

import (
	"context"
	"fmt"
	"time"
)

// CostRecord is the unit of truth for cost aggregation: one record per
// completed call, never mutated after creation.
type CostRecord struct {
	// ID uniquely identifies the record
	ID string `json:"id"`

	// UserID is the user the call was made for
	UserID string `json:"user_id"`

	// ConversationID identifies the conversation, if any
	ConversationID string `json:"conversation_id,omitempty"`

	// PersonaID identifies the persona that spoke, if any
	PersonaID string `json:"persona_id,omitempty"`

	// Provider and Model identify what was billed
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Token counts for the call
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CachedTokens int `json:"cached_tokens"`

	// TotalCost is the call cost in USD at full float precision
	TotalCost float64 `json:"total_cost"`

	// Partial marks a best-effort record for a cancelled call whose
	// provider reported usage before the caller abandoned it.
	Partial bool `json:"partial,omitempty"`

	// Estimated marks records priced from estimated token counts.
	Estimated bool `json:"estimated,omitempty"`

	// CreatedAt is when the record was created
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows queries over cost records. Zero values mean "any".
type Filter struct {
	UserID         string
	ConversationID string
	Provider       string
	Since          time.Time
	Until          time.Time
}

// Totals summarizes a set of cost records.
type Totals struct {
	Records       int64   `json:"records"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	CachedTokens  int64   `json:"cached_tokens"`
	TotalCost     float64 `json:"total_cost"`
	Conversations int64   `json:"conversations"`
}

// Store persists cost records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, record *CostRecord) error

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*CostRecord, error)

	// Totals aggregates records matching the filter.
	Totals(ctx context.Context, filter Filter) (*Totals, error)

	// PurgeOlderThan deletes records created before the cutoff and
	// returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases store resources.
	Close() error
}

// StorageError wraps a storage backend failure with operation context.
type StorageError struct {
	Backend string
	Op      string
	Cause   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s storage error during %s: %v", e.Backend, e.Op, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
