package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"roundtable-hq/roundtable/pkg/cachestats"
	"roundtable-hq/roundtable/pkg/snapcache"
)

func postCache(t *testing.T, h *CacheHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/cache", strings.NewReader(body)))
	return rec
}

func TestCacheHandlerSetGetDelete(t *testing.T) {
	h := NewCacheHandler(snapcache.New(), cachestats.NewMemoryStore(), nil)

	rec := postCache(t, h, `{"action":"set","userId":"alice","key":"persona:p1","value":{"name":"Alice"}}`)
	if rec.Code != 200 {
		t.Fatalf("set status = %d", rec.Code)
	}

	rec = postCache(t, h, `{"action":"get","userId":"alice","key":"persona:p1"}`)
	if rec.Code != 200 {
		t.Fatalf("get status = %d", rec.Code)
	}
	var resp CacheResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Found == nil || !*resp.Found {
		t.Errorf("expected hit: %s", rec.Body.String())
	}

	rec = postCache(t, h, `{"action":"delete","userId":"alice","key":"persona:p1"}`)
	if rec.Code != 200 {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = postCache(t, h, `{"action":"get","userId":"alice","key":"persona:p1"}`)
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Found == nil || *resp.Found {
		t.Errorf("expected miss after delete: %s", rec.Body.String())
	}
}

func TestCacheHandlerScopedKeys(t *testing.T) {
	h := NewCacheHandler(snapcache.New(), nil, nil)

	postCache(t, h, `{"action":"set","userId":"alice","key":"note","value":"a"}`)

	// The same local key under another user is a different entry.
	rec := postCache(t, h, `{"action":"get","userId":"bob","key":"note"}`)
	var resp CacheResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Found != nil && *resp.Found {
		t.Error("keys must be scoped by user")
	}
}

func TestCacheHandlerStats(t *testing.T) {
	h := NewCacheHandler(snapcache.New(), nil, nil)

	postCache(t, h, `{"action":"set","key":"a","value":"one"}`)
	postCache(t, h, `{"action":"set","key":"b","value":"two"}`)

	rec := postCache(t, h, `{"action":"stats"}`)
	if rec.Code != 200 {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var resp CacheResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Stats == nil || resp.Stats.Entries != 2 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if resp.Stats.MemoryBytes <= 0 {
		t.Error("expected approximate memory estimate")
	}
}

func TestCacheHandlerClear(t *testing.T) {
	h := NewCacheHandler(snapcache.New(), nil, nil)

	postCache(t, h, `{"action":"set","key":"a","value":"one"}`)
	postCache(t, h, `{"action":"clear"}`)

	rec := postCache(t, h, `{"action":"stats"}`)
	var resp CacheResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Stats.Entries != 0 {
		t.Errorf("entries after clear = %d", resp.Stats.Entries)
	}
}

func TestCacheHandlerRecordsEvents(t *testing.T) {
	events := cachestats.NewMemoryStore()
	h := NewCacheHandler(snapcache.New(), events, nil)

	postCache(t, h, `{"action":"set","userId":"alice","key":"k","value":"v"}`)
	postCache(t, h, `{"action":"get","userId":"alice","key":"k","provider":"openai","savedCost":0.02}`)
	postCache(t, h, `{"action":"get","userId":"alice","key":"absent"}`)

	got, err := events.List(context.Background(), cachestats.Filter{UserID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("recorded %d events, want 2", len(got))
	}
	if !got[0].Hit || got[0].SavedCost != 0.02 || got[0].Provider != "openai" {
		t.Errorf("hit event: %+v", got[0])
	}
	if got[1].Hit || got[1].SavedCost != 0 {
		t.Errorf("miss event: %+v", got[1])
	}
}

func TestCacheHandlerFetchThrough(t *testing.T) {
	cache := snapcache.New(snapcache.WithLoader("persona:", func(ctx context.Context, key snapcache.Key) (interface{}, error) {
		return map[string]string{"name": "Loaded"}, nil
	}))
	h := NewCacheHandler(cache, nil, nil)

	rec := postCache(t, h, `{"action":"get","userId":"alice","key":"persona:p9"}`)
	var resp CacheResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Found == nil || !*resp.Found {
		t.Fatalf("expected fetch-through hit: %s", rec.Body.String())
	}
}

func TestCacheHandlerRejectsBadRequests(t *testing.T) {
	h := NewCacheHandler(snapcache.New(), nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"unknown action", `{"action":"flush"}`},
		{"get without key", `{"action":"get"}`},
		{"set without key", `{"action":"set","value":"x"}`},
		{"malformed JSON", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postCache(t, h, tt.body); rec.Code != 400 {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
