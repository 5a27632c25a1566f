package handlers

import (
	"encoding/json"
	"net/http"

	"roundtable-hq/roundtable/pkg/providers"
	"roundtable-hq/roundtable/pkg/structured"
)

// ChatRequest is the inbound payload from the hosting shell.
type ChatRequest struct {
	Provider            string              `json:"provider"`
	Model               string              `json:"model"`
	Messages            []providers.Message `json:"messages"`
	Temperature         float64             `json:"temperature,omitempty"`
	MaxTokens           int                 `json:"maxTokens,omitempty"`
	PersonaID           string              `json:"personaId,omitempty"`
	PersonaName         string              `json:"personaName"`
	ConversationID      string              `json:"conversationId,omitempty"`
	UserID              string              `json:"userId"`
	Stream              bool                `json:"stream,omitempty"`
	UseStructuredOutput bool                `json:"useStructuredOutput,omitempty"`
}

// Usage is the outbound token usage block.
type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	CachedTokens     int  `json:"cachedTokens,omitempty"`
	Estimated        bool `json:"estimated,omitempty"`
}

// ChatResponse is the outbound payload.
type ChatResponse struct {
	StructuredResponse *structured.Response `json:"structuredResponse,omitempty"`
	Content            string               `json:"content"`
	Usage              Usage                `json:"usage"`
	Cost               float64              `json:"cost"`
	Provider           string               `json:"provider"`
	Model              string               `json:"model"`
	PersonaID          string               `json:"personaId,omitempty"`
	PersonaName        string               `json:"personaName"`
}

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Type: errType, Message: message}})
}

func usageFrom(u providers.TokenUsage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		CachedTokens:     u.CachedTokens,
		Estimated:        u.Estimated,
	}
}
