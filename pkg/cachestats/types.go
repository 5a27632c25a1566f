package cachestats

import (
	"context"
	"fmt"
	"time"
)

// Event is one cache lookup outcome. Hit events may carry the cost the
// cache avoided; miss events always have SavedCost zero.
type Event struct {
	// ID uniquely identifies the event
	ID string `json:"id"`

	// UserID is the user the lookup was made for
	UserID string `json:"user_id"`

	// ConversationID identifies the conversation, if any
	ConversationID string `json:"conversation_id,omitempty"`

	// Provider identifies which provider's response was cached
	Provider string `json:"provider,omitempty"`

	// Hit is true for a cache hit, false for a miss
	Hit bool `json:"hit"`

	// SavedCost is the USD cost avoided by this hit
	SavedCost float64 `json:"saved_cost,omitempty"`

	// CreatedAt is when the lookup happened
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows event queries. Zero values mean "any".
type Filter struct {
	UserID         string
	ConversationID string
	Since          time.Time
	Until          time.Time
}

// Store persists cache events. Implementations must be safe for
// concurrent use.
type Store interface {
	// Record persists one event.
	Record(ctx context.Context, event *Event) error

	// List returns events matching the filter in chronological order.
	List(ctx context.Context, filter Filter) ([]*Event, error)

	// Close releases store resources.
	Close() error
}

// GroupBy selects the bucketing period for aggregation.
type GroupBy string

const (
	GroupByHour  GroupBy = "hour"
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// Valid reports whether the group-by value is one of the known periods.
func (g GroupBy) Valid() bool {
	switch g {
	case GroupByHour, GroupByDay, GroupByWeek, GroupByMonth:
		return true
	}
	return false
}

// Query describes an aggregation request.
type Query struct {
	UserID         string
	ConversationID string
	Since          time.Time
	Until          time.Time
	GroupBy        GroupBy
}

// PeriodMetrics is one time bucket of aggregated cache activity.
type PeriodMetrics struct {
	Period    string  `json:"period"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	SavedCost float64 `json:"saved_cost"`
}

// ProviderMetrics aggregates cache activity for one provider.
type ProviderMetrics struct {
	Provider  string  `json:"provider"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	SavedCost float64 `json:"saved_cost"`
}

// Summary is the result of an aggregation query.
type Summary struct {
	TotalHits          int64              `json:"total_hits"`
	TotalMisses        int64              `json:"total_misses"`
	OverallHitRate     float64            `json:"overall_hit_rate"`
	TotalSavedCost     float64            `json:"total_saved_cost"`
	TotalConversations int64              `json:"total_conversations"`
	PeriodMetrics      []*PeriodMetrics   `json:"period_metrics,omitempty"`
	ProviderBreakdown  []*ProviderMetrics `json:"provider_breakdown,omitempty"`
}

// StoreError wraps a cache-stats storage failure with operation context.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cachestats storage error during %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}
