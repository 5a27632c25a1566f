package ledger

import (
	"context"
	"testing"
	"time"
)

func record(id, user, conv, provider string, cost float64, age time.Duration) *CostRecord {
	return &CostRecord{
		ID:             id,
		UserID:         user,
		ConversationID: conv,
		Provider:       provider,
		Model:          "test-model",
		InputTokens:    100,
		OutputTokens:   50,
		TotalCost:      cost,
		CreatedAt:      time.Now().Add(-age),
	}
}

func TestMemoryStoreAppendAndList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	records := []*CostRecord{
		record("r1", "alice", "conv-1", "openai", 0.01, 3*time.Hour),
		record("r2", "alice", "conv-1", "anthropic", 0.02, 2*time.Hour),
		record("r3", "bob", "conv-2", "openai", 0.03, time.Hour),
	}
	for _, r := range records {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
	if got[0].ID != "r3" {
		t.Errorf("expected newest record first, got %s", got[0].ID)
	}
}

func TestMemoryStoreFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, record("r1", "alice", "conv-1", "openai", 0.01, 3*time.Hour))
	store.Append(ctx, record("r2", "alice", "conv-2", "anthropic", 0.02, 2*time.Hour))
	store.Append(ctx, record("r3", "bob", "conv-2", "openai", 0.03, time.Hour))

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{
			name:   "by user",
			filter: Filter{UserID: "alice"},
			want:   2,
		},
		{
			name:   "by conversation",
			filter: Filter{ConversationID: "conv-2"},
			want:   2,
		},
		{
			name:   "by provider",
			filter: Filter{Provider: "openai"},
			want:   2,
		},
		{
			name:   "by user and provider",
			filter: Filter{UserID: "alice", Provider: "openai"},
			want:   1,
		},
		{
			name:   "since excludes older records",
			filter: Filter{Since: time.Now().Add(-90 * time.Minute)},
			want:   1,
		},
		{
			name:   "no match",
			filter: Filter{UserID: "carol"},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMemoryStoreTotals(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, record("r1", "alice", "conv-1", "openai", 0.01, 2*time.Hour))
	store.Append(ctx, record("r2", "alice", "conv-1", "openai", 0.02, time.Hour))
	store.Append(ctx, record("r3", "alice", "conv-2", "anthropic", 0.04, time.Minute))

	totals, err := store.Totals(ctx, Filter{UserID: "alice"})
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}

	if totals.Records != 3 {
		t.Errorf("Records = %d, want 3", totals.Records)
	}
	if totals.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300", totals.InputTokens)
	}
	if totals.OutputTokens != 150 {
		t.Errorf("OutputTokens = %d, want 150", totals.OutputTokens)
	}
	if totals.Conversations != 2 {
		t.Errorf("Conversations = %d, want 2", totals.Conversations)
	}
	if totals.TotalCost < 0.069 || totals.TotalCost > 0.071 {
		t.Errorf("TotalCost = %f, want 0.07", totals.TotalCost)
	}
}

func TestMemoryStorePurgeOlderThan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, record("old-1", "alice", "", "openai", 0.01, 48*time.Hour))
	store.Append(ctx, record("old-2", "alice", "", "openai", 0.01, 36*time.Hour))
	store.Append(ctx, record("fresh", "alice", "", "openai", 0.01, time.Hour))

	removed, err := store.PurgeOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeOlderThan() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("PurgeOlderThan() removed %d, want 2", removed)
	}

	got, _ := store.List(ctx, Filter{})
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("expected only the fresh record to survive, got %d records", len(got))
	}
}

func TestMemoryStoreAppendCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	r := record("r1", "alice", "", "openai", 0.01, 0)
	store.Append(ctx, r)

	// Mutating the caller's record must not affect the stored copy.
	r.TotalCost = 99.0

	got, _ := store.List(ctx, Filter{})
	if got[0].TotalCost != 0.01 {
		t.Errorf("stored record mutated through caller reference: cost = %f", got[0].TotalCost)
	}
}
