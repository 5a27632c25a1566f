package snapcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	cache := New()
	key := Key{UserID: "alice", Local: "persona:p1"}

	cache.Set(key, map[string]string{"name": "Alice"})

	value, ok, err := cache.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	m, isMap := value.(map[string]string)
	if !isMap || m["name"] != "Alice" {
		t.Errorf("unexpected cached value: %v", value)
	}
}

func TestCacheMissWithoutLoader(t *testing.T) {
	cache := New()

	value, ok, err := cache.Get(context.Background(), Key{Local: "other:k1"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || value != nil {
		t.Errorf("expected miss, got ok=%v value=%v", ok, value)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := New(WithTTL(10 * time.Millisecond))
	key := Key{Local: "persona:p1"}

	cache.Set(key, "snapshot")
	time.Sleep(20 * time.Millisecond)

	_, ok, err := cache.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("expected expired entry to miss")
	}
	if cache.Size() != 0 {
		t.Errorf("expected lazy eviction of expired entry, size = %d", cache.Size())
	}
}

func TestCacheSweepOnSet(t *testing.T) {
	cache := New(WithTTL(10 * time.Millisecond))

	cache.Set(Key{Local: "a"}, 1)
	cache.Set(Key{Local: "b"}, 2)
	time.Sleep(20 * time.Millisecond)

	// A mutating operation sweeps all expired entries, not just its own key.
	cache.Set(Key{Local: "c"}, 3)

	if cache.Size() != 1 {
		t.Errorf("expected sweep to leave 1 entry, got %d", cache.Size())
	}
}

func TestCacheLRUEviction(t *testing.T) {
	cache := New(WithMaxEntries(2))
	ctx := context.Background()

	cache.Set(Key{Local: "a"}, 1)
	time.Sleep(time.Millisecond)
	cache.Set(Key{Local: "b"}, 2)
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes least recently used.
	if _, ok, _ := cache.Get(ctx, Key{Local: "a"}); !ok {
		t.Fatal("expected hit for a")
	}
	time.Sleep(time.Millisecond)

	cache.Set(Key{Local: "c"}, 3)

	if _, ok, _ := cache.Get(ctx, Key{Local: "b"}); ok {
		t.Error("expected b to be evicted as LRU")
	}
	if _, ok, _ := cache.Get(ctx, Key{Local: "a"}); !ok {
		t.Error("expected a to survive eviction")
	}
	if _, ok, _ := cache.Get(ctx, Key{Local: "c"}); !ok {
		t.Error("expected c to be present")
	}
}

func TestCacheFetchThrough(t *testing.T) {
	loads := 0
	loader := func(ctx context.Context, key Key) (interface{}, error) {
		loads++
		return "loaded:" + key.Local, nil
	}
	cache := New(WithLoader("persona:", loader))
	ctx := context.Background()
	key := PersonaKey("alice", "p1")

	value, ok, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || value != "loaded:persona:p1" {
		t.Errorf("fetch-through failed: ok=%v value=%v", ok, value)
	}

	// Second get must hit the cache, not the loader.
	if _, ok, _ := cache.Get(ctx, key); !ok {
		t.Fatal("expected hit on second get")
	}
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}
}

func TestCacheFetchThroughErrors(t *testing.T) {
	wantErr := errors.New("backing store unavailable")
	cache := New(WithLoader("conversation:", func(ctx context.Context, key Key) (interface{}, error) {
		return nil, wantErr
	}))

	_, ok, err := cache.Get(context.Background(), ConversationKey("alice", "c1"))
	if ok {
		t.Error("expected miss on loader error")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Get() error = %v, want %v", err, wantErr)
	}
}

func TestCacheFetchThroughAbsentUpstream(t *testing.T) {
	cache := New(WithLoader("persona:", func(ctx context.Context, key Key) (interface{}, error) {
		return nil, nil
	}))

	value, ok, err := cache.Get(context.Background(), PersonaKey("alice", "missing"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || value != nil {
		t.Errorf("expected clean miss, got ok=%v value=%v", ok, value)
	}
	if cache.Size() != 0 {
		t.Error("absent upstream value must not be cached")
	}
}

func TestCacheStats(t *testing.T) {
	cache := New()

	cache.Set(Key{Local: "a"}, "hello")
	cache.Set(Key{Local: "b"}, map[string]int{"n": 42})

	stats := cache.Stats()
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if len(stats.KeySample) != 2 {
		t.Errorf("KeySample has %d keys, want 2", len(stats.KeySample))
	}
	if stats.MemoryBytes <= 0 {
		t.Errorf("MemoryBytes = %d, want > 0", stats.MemoryBytes)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	cache := New()

	cache.Set(Key{Local: "a"}, 1)
	cache.Set(Key{Local: "b"}, 2)

	cache.Delete(Key{Local: "a"})
	if _, ok, _ := cache.Get(context.Background(), Key{Local: "a"}); ok {
		t.Error("expected a to be deleted")
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", cache.Size())
	}
}
