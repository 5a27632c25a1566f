package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store, used in tests and for deployments
// that do not need cost records to survive a restart.
type MemoryStore struct {
	records []*CostRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append persists one record.
func (s *MemoryStore) Append(ctx context.Context, record *CostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records = append(s.records, &copied)
	return nil
}

// List returns records matching the filter, newest first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]*CostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*CostRecord
	for _, r := range s.records {
		if matches(r, filter) {
			copied := *r
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Totals aggregates records matching the filter.
func (s *MemoryStore) Totals(ctx context.Context, filter Filter) (*Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := &Totals{}
	conversations := make(map[string]bool)

	for _, r := range s.records {
		if !matches(r, filter) {
			continue
		}
		totals.Records++
		totals.InputTokens += int64(r.InputTokens)
		totals.OutputTokens += int64(r.OutputTokens)
		totals.CachedTokens += int64(r.CachedTokens)
		totals.TotalCost += r.TotalCost
		if r.ConversationID != "" {
			conversations[r.ConversationID] = true
		}
	}
	totals.Conversations = int64(len(conversations))

	return totals, nil
}

// PurgeOlderThan deletes records created before the cutoff.
func (s *MemoryStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept

	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func matches(r *CostRecord, f Filter) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.ConversationID != "" && r.ConversationID != f.ConversationID {
		return false
	}
	if f.Provider != "" && r.Provider != f.Provider {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}
