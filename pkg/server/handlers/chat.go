package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"roundtable-hq/roundtable/pkg/orchestrator"
	"roundtable-hq/roundtable/pkg/persona"
	"roundtable-hq/roundtable/pkg/providers"
	"roundtable-hq/roundtable/pkg/telemetry/logging"
	"roundtable-hq/roundtable/pkg/telemetry/metrics"
)

// ChatHandler serves POST /v1/chat: one respond invocation, streaming or
// not, validated before any provider call is attempted.
type ChatHandler struct {
	orchestrator *orchestrator.Orchestrator
	collector    *metrics.Collector
}

// NewChatHandler creates the chat handler. collector may be nil.
func NewChatHandler(o *orchestrator.Orchestrator, collector *metrics.Collector) *ChatHandler {
	return &ChatHandler{orchestrator: o, collector: collector}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	if field, ok := missingField(&req); ok {
		writeError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("missing required field %q", field))
		return
	}

	orchReq := &orchestrator.Request{
		Persona: &persona.Persona{
			ID:          req.PersonaID,
			Name:        req.PersonaName,
			Provider:    req.Provider,
			Model:       req.Model,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
		History:          req.Messages,
		UserID:           req.UserID,
		ConversationID:   req.ConversationID,
		StructuredOutput: req.UseStructuredOutput,
	}

	if req.Stream {
		h.streamResponse(w, r, orchReq)
		return
	}

	start := time.Now()
	result, err := h.orchestrator.Respond(r.Context(), orchReq)
	h.observe(orchReq, result, err, time.Since(start))
	if err != nil {
		h.writeRespondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, responseFrom(result))
}

// streamResponse delivers the response as Server-Sent Events: one
// "delta" event per chunk, a final "response" event with the full
// payload, then a [DONE] marker. A failure after chunks were sent is
// reported as an "error" event; chunks are never retracted.
func (h *ChatHandler) streamResponse(w http.ResponseWriter, r *http.Request, orchReq *orchestrator.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	sink := orchestrator.SinkFunc(func(chunk string) bool {
		if ctx.Err() != nil {
			return false
		}
		if err := writeEvent(w, map[string]string{"delta": chunk}); err != nil {
			return false
		}
		flusher.Flush()
		return true
	})
	orchReq.Sink = sink

	start := time.Now()
	result, err := h.orchestrator.Respond(ctx, orchReq)
	h.observe(orchReq, result, err, time.Since(start))
	if err != nil {
		logging.FromContext(ctx).Warn("streaming respond failed",
			"error", err,
			"provider", orchReq.Persona.Provider,
		)
		_ = writeEvent(w, ErrorBody{Error: ErrorDetail{Type: "provider_error", Message: "response failed"}})
		flusher.Flush()
		return
	}

	_ = writeEvent(w, map[string]interface{}{"response": responseFrom(result)})
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// writeRespondError maps orchestrator errors onto HTTP statuses. A
// validation or state error yields a specific message; provider errors
// yield a generic retryable condition.
func (h *ChatHandler) writeRespondError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *providers.ValidationError
	var unsupportedErr *orchestrator.UnsupportedProviderError
	var rateLimitErr *providers.RateLimitError
	var authErr *providers.AuthError
	var timeoutErr *providers.TimeoutError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.As(err, &unsupportedErr):
		writeError(w, http.StatusBadRequest, "unsupported_provider", unsupportedErr.Error())
	case errors.As(err, &rateLimitErr):
		writeError(w, http.StatusTooManyRequests, "rate_limit", "provider rate limit exceeded")
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadGateway, "provider_error", "response failed")
	case errors.As(err, &timeoutErr):
		writeError(w, http.StatusGatewayTimeout, "provider_timeout", "response timed out")
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		// Client went away; nothing useful to write.
	default:
		logging.FromContext(r.Context()).Error("respond failed", "error", err)
		writeError(w, http.StatusBadGateway, "provider_error", "response failed")
	}
}

func (h *ChatHandler) observe(req *orchestrator.Request, result *orchestrator.Result, err error, duration time.Duration) {
	if h.collector == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	h.collector.Request.ObserveRequest(req.Persona.Provider, req.Persona.Model, status, duration)

	if result != nil {
		h.collector.Request.AddTokens(req.Persona.Provider, req.Persona.Model,
			result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.CachedTokens)
		if result.Cost != nil {
			h.collector.Cost.AddCost(req.Persona.Provider, req.Persona.Model,
				result.Cost.TotalCost, result.Cost.CacheDiscount)
		}
	}
}

func responseFrom(result *orchestrator.Result) *ChatResponse {
	return &ChatResponse{
		StructuredResponse: result.Structured,
		Content:            result.Structured.Content,
		Usage:              usageFrom(result.Usage),
		Cost:               result.Cost.TotalCost,
		Provider:           result.Provider,
		Model:              result.Model,
		PersonaID:          result.PersonaID,
		PersonaName:        result.PersonaName,
	}
}

func missingField(req *ChatRequest) (string, bool) {
	switch {
	case req.Provider == "":
		return "provider", true
	case req.Model == "":
		return "model", true
	case len(req.Messages) == 0:
		return "messages", true
	case req.UserID == "":
		return "userId", true
	case req.PersonaName == "":
		return "personaName", true
	}
	return "", false
}
