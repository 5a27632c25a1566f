package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"roundtable-hq/roundtable/pkg/ledger"
	"roundtable-hq/roundtable/pkg/orchestrator"
	"roundtable-hq/roundtable/pkg/processing/costs"
	"roundtable-hq/roundtable/pkg/processing/tokens"
	"roundtable-hq/roundtable/pkg/providers"
)

// scriptedProvider is a canned providers.Provider for handler tests.
type scriptedProvider struct {
	response *providers.ChatResponse
	chunks   []*providers.StreamChunk
	err      error
}

func (p *scriptedProvider) SendChat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	return p.response, p.err
}

func (p *scriptedProvider) StreamChat(ctx context.Context, req *providers.ChatRequest) (<-chan *providers.StreamChunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan *providers.StreamChunk, len(p.chunks))
	for _, chunk := range p.chunks {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) GetName() string { return "openai" }
func (p *scriptedProvider) GetType() string { return "openai" }
func (p *scriptedProvider) GetConfig() providers.ProviderConfig {
	return providers.ProviderConfig{Name: "openai"}
}
func (p *scriptedProvider) Close() error { return nil }

type singleRegistry struct{ provider providers.Provider }

func (r singleRegistry) Get(name string) (providers.Provider, bool) {
	if name == "openai" {
		return r.provider, true
	}
	return nil, false
}

func newChatHandler(provider providers.Provider) *ChatHandler {
	o := orchestrator.New(singleRegistry{provider}, costs.NewCalculator(nil), tokens.NewEstimator(nil), ledger.NewMemoryStore())
	return NewChatHandler(o, nil)
}

const validBody = `{
	"provider": "openai",
	"model": "gpt-4o-mini",
	"messages": [{"role": "user", "content": "Summarize the plan"}],
	"personaName": "Alice",
	"userId": "user-1"
}`

func TestChatHandlerSuccess(t *testing.T) {
	provider := &scriptedProvider{
		response: &providers.ChatResponse{
			Content: "Here is the summary.",
			Usage:   providers.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		},
	}
	h := newChatHandler(provider)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat", strings.NewReader(validBody)))

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.StructuredResponse == nil || resp.StructuredResponse.Speaker != "Alice" {
		t.Errorf("speaker not forced: %+v", resp.StructuredResponse)
	}
	if resp.Content != "Here is the summary." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 120 || resp.Cost <= 0 {
		t.Errorf("usage/cost wrong: usage=%+v cost=%f", resp.Usage, resp.Cost)
	}
}

func TestChatHandlerValidation(t *testing.T) {
	h := newChatHandler(&scriptedProvider{})

	tests := []struct {
		name string
		body string
	}{
		{"missing provider", `{"model":"m","messages":[{"role":"user","content":"x"}],"personaName":"A","userId":"u"}`},
		{"missing model", `{"provider":"openai","messages":[{"role":"user","content":"x"}],"personaName":"A","userId":"u"}`},
		{"missing messages", `{"provider":"openai","model":"m","personaName":"A","userId":"u"}`},
		{"missing userId", `{"provider":"openai","model":"m","messages":[{"role":"user","content":"x"}],"personaName":"A"}`},
		{"missing personaName", `{"provider":"openai","model":"m","messages":[{"role":"user","content":"x"}],"userId":"u"}`},
		{"malformed JSON", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat", strings.NewReader(tt.body)))
			if rec.Code != 400 {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChatHandlerUnsupportedProvider(t *testing.T) {
	h := newChatHandler(&scriptedProvider{})

	body := strings.Replace(validBody, `"openai"`, `"cohere"`, 1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat", strings.NewReader(body)))

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported_provider") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestChatHandlerProviderError(t *testing.T) {
	h := newChatHandler(&scriptedProvider{
		err: &providers.ProviderError{Provider: "openai", StatusCode: 500, Body: "internal"},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat", strings.NewReader(validBody)))

	if rec.Code != 502 {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	// The caller sees a generic retryable condition, not backend details.
	if strings.Contains(rec.Body.String(), "internal") {
		t.Errorf("backend details leaked: %s", rec.Body.String())
	}
}

func TestChatHandlerRateLimit(t *testing.T) {
	h := newChatHandler(&scriptedProvider{
		err: &providers.RateLimitError{Provider: "openai"},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat", strings.NewReader(validBody)))

	if rec.Code != 429 {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestChatHandlerStreaming(t *testing.T) {
	provider := &scriptedProvider{
		chunks: []*providers.StreamChunk{
			{ID: "s1", Delta: "The plan "},
			{ID: "s1", Delta: "works."},
			{ID: "s1", FinishReason: providers.FinishReasonStop, Usage: &providers.TokenUsage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60}},
		},
	}
	h := newChatHandler(provider)

	body := strings.Replace(validBody, `"userId": "user-1"`, `"userId": "user-1", "stream": true`, 1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat", strings.NewReader(body)))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	out := rec.Body.String()
	if !strings.Contains(out, `"delta":"The plan "`) || !strings.Contains(out, `"delta":"works."`) {
		t.Errorf("delta events missing: %s", out)
	}
	if !strings.Contains(out, `"response"`) {
		t.Errorf("final response event missing: %s", out)
	}
	if !strings.Contains(out, "data: [DONE]") {
		t.Errorf("DONE marker missing: %s", out)
	}
}

func TestChatHandlerMethodNotAllowed(t *testing.T) {
	h := newChatHandler(&scriptedProvider{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/chat", nil))
	if rec.Code != 405 {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
