package handlers

import (
	"net/http"
	"time"

	"roundtable-hq/roundtable/pkg/cachestats"
	"roundtable-hq/roundtable/pkg/telemetry/logging"
)

// CacheMetricsHandler serves GET /v1/metrics/cache: aggregated cache
// hit/miss and savings summaries.
type CacheMetricsHandler struct {
	aggregator *cachestats.Aggregator
}

// NewCacheMetricsHandler creates the cache metrics handler.
func NewCacheMetricsHandler(aggregator *cachestats.Aggregator) *CacheMetricsHandler {
	return &CacheMetricsHandler{aggregator: aggregator}
}

func (h *CacheMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	q := r.URL.Query()
	query := cachestats.Query{
		UserID:         q.Get("userId"),
		ConversationID: q.Get("conversationId"),
		GroupBy:        cachestats.GroupBy(q.Get("groupBy")),
	}

	if query.GroupBy != "" && !query.GroupBy.Valid() {
		writeError(w, http.StatusBadRequest, "validation_error",
			"groupBy must be one of hour, day, week, month")
		return
	}

	var err error
	if query.Since, err = parseTimeParam(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "from must be RFC 3339")
		return
	}
	if query.Until, err = parseTimeParam(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "to must be RFC 3339")
		return
	}

	summary, err := h.aggregator.Aggregate(r.Context(), query)
	if err != nil {
		logging.FromContext(r.Context()).Error("cache metrics aggregation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "aggregation failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
