package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"roundtable-hq/roundtable/pkg/cachestats"
	"roundtable-hq/roundtable/pkg/snapcache"
	"roundtable-hq/roundtable/pkg/telemetry/logging"
	"roundtable-hq/roundtable/pkg/telemetry/metrics"
)

// CacheRequest is the operational cache control payload.
type CacheRequest struct {
	Action         string      `json:"action"`
	UserID         string      `json:"userId,omitempty"`
	ConversationID string      `json:"conversationId,omitempty"`
	Key            string      `json:"key,omitempty"`
	Value          interface{} `json:"value,omitempty"`

	// Provider and SavedCost attribute a hit for metrics aggregation.
	Provider  string  `json:"provider,omitempty"`
	SavedCost float64 `json:"savedCost,omitempty"`
}

// CacheResponse is the cache control reply.
type CacheResponse struct {
	Action string           `json:"action"`
	Found  *bool            `json:"found,omitempty"`
	Value  interface{}      `json:"value,omitempty"`
	Stats  *snapcache.Stats `json:"stats,omitempty"`
}

// CacheHandler serves POST /v1/cache: get|set|delete|clear|stats over
// the snapshot cache, recording hit/miss events for aggregation.
type CacheHandler struct {
	cache     *snapcache.Cache
	events    cachestats.Store
	collector *metrics.Collector
}

// NewCacheHandler creates the cache control handler. events and
// collector may be nil.
func NewCacheHandler(cache *snapcache.Cache, events cachestats.Store, collector *metrics.Collector) *CacheHandler {
	return &CacheHandler{cache: cache, events: events, collector: collector}
}

func (h *CacheHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	var req CacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	switch req.Action {
	case "get":
		h.handleGet(w, r, &req)
	case "set":
		if req.Key == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "missing required field \"key\"")
			return
		}
		h.cache.Set(h.key(&req), req.Value)
		writeJSON(w, http.StatusOK, CacheResponse{Action: "set"})
	case "delete":
		if req.Key == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "missing required field \"key\"")
			return
		}
		h.cache.Delete(h.key(&req))
		writeJSON(w, http.StatusOK, CacheResponse{Action: "delete"})
	case "clear":
		h.cache.Clear()
		writeJSON(w, http.StatusOK, CacheResponse{Action: "clear"})
	case "stats":
		stats := h.cache.Stats()
		if h.collector != nil {
			h.collector.Cache.SetEntries(stats.Entries)
		}
		writeJSON(w, http.StatusOK, CacheResponse{Action: "stats", Stats: stats})
	default:
		writeError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("unknown action %q (supported: get, set, delete, clear, stats)", req.Action))
	}
}

func (h *CacheHandler) handleGet(w http.ResponseWriter, r *http.Request, req *CacheRequest) {
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "missing required field \"key\"")
		return
	}

	value, found, err := h.cache.Get(r.Context(), h.key(req))
	if err != nil {
		logging.FromContext(r.Context()).Error("cache fetch-through failed", "error", err, "key", req.Key)
		writeError(w, http.StatusBadGateway, "backing_store_error", "cache fetch failed")
		return
	}

	h.recordLookup(r.Context(), req, found)

	resp := CacheResponse{Action: "get", Found: &found}
	if found {
		resp.Value = value
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CacheHandler) key(req *CacheRequest) snapcache.Key {
	return snapcache.Key{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Local:          req.Key,
	}
}

// recordLookup persists a hit/miss event and updates metrics,
// best-effort.
func (h *CacheHandler) recordLookup(ctx context.Context, req *CacheRequest, hit bool) {
	if h.collector != nil {
		if hit {
			h.collector.Cache.ObserveHit(req.SavedCost)
		} else {
			h.collector.Cache.ObserveMiss()
		}
	}

	if h.events == nil {
		return
	}

	event := &cachestats.Event{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Provider:       req.Provider,
		Hit:            hit,
		CreatedAt:      time.Now().UTC(),
	}
	if hit {
		event.SavedCost = req.SavedCost
	}

	if err := h.events.Record(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("cache event write failed", "error", err)
	}
}
