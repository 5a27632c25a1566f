package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server for testing provider adapters.
// It simulates OpenAI, Anthropic, and Gemini API responses including
// errors and SSE streams.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	lastBody     []byte
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string

	// StreamChunks are SSE data payloads, each written as "data: <chunk>".
	StreamChunks []string

	// StreamDone appends the OpenAI-style "data: [DONE]" terminator.
	// Anthropic and Gemini streams end by closing the body instead.
	StreamDone bool
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific endpoint path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// LastBody returns the body of the most recent request.
func (ms *MockServer) LastBody() []byte {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastBody
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.lastBody = body
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleStream(w, response)
		return
	}

	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// handleStream writes the chunks as Server-Sent Events.
func (ms *MockServer) handleStream(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}

	if response.StreamDone {
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// MockOpenAIResponse creates a mock OpenAI chat completion response.
func MockOpenAIResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// MockOpenAIToolCallResponse creates a mock OpenAI response answering
// through a forced function call.
func MockOpenAIToolCallResponse(toolName, arguments, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-456",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role": "assistant",
					"tool_calls": []map[string]interface{}{
						{
							"id":   "call_1",
							"type": "function",
							"function": map[string]interface{}{
								"name":      toolName,
								"arguments": arguments,
							},
						},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     40,
			"completion_tokens": 15,
			"total_tokens":      55,
		},
	}
}

// MockOpenAIStreamChunk creates one mock OpenAI streaming chunk.
func MockOpenAIStreamChunk(delta, finishReason, model string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"content": delta,
				},
				"finish_reason": finishReason,
			},
		},
	}

	return marshal(chunk)
}

// MockOpenAIToolCallStreamChunk creates one mock OpenAI streaming chunk
// carrying a function-call argument fragment. The tool name rides on the
// first fragment only, matching the live API.
func MockOpenAIToolCallStreamChunk(toolName, argsFragment, model string) string {
	function := map[string]interface{}{
		"arguments": argsFragment,
	}
	if toolName != "" {
		function["name"] = toolName
	}

	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"tool_calls": []map[string]interface{}{
						{
							"index":    0,
							"type":     "function",
							"function": function,
						},
					},
				},
			},
		},
	}

	return marshal(chunk)
}

// MockOpenAIUsageChunk creates the final usage-only chunk produced by
// stream_options.include_usage.
func MockOpenAIUsageChunk(prompt, completion, cached int, model string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{},
		"usage": map[string]interface{}{
			"prompt_tokens":     prompt,
			"completion_tokens": completion,
			"total_tokens":      prompt + completion,
			"prompt_tokens_details": map[string]interface{}{
				"cached_tokens": cached,
			},
		},
	}

	return marshal(chunk)
}

// MockAnthropicResponse creates a mock Anthropic messages response.
func MockAnthropicResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":   "msg_123",
		"type": "message",
		"role": "assistant",
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": content,
			},
		},
		"model":       model,
		"stop_reason": "end_turn",
		"usage": map[string]interface{}{
			"input_tokens":  10,
			"output_tokens": 20,
		},
	}
}

// MockAnthropicToolUseResponse creates a mock Anthropic response
// answering through a forced tool call.
func MockAnthropicToolUseResponse(toolName string, input map[string]interface{}, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":   "msg_456",
		"type": "message",
		"role": "assistant",
		"content": []map[string]interface{}{
			{
				"type":  "tool_use",
				"id":    "toolu_1",
				"name":  toolName,
				"input": input,
			},
		},
		"model":       model,
		"stop_reason": "tool_use",
		"usage": map[string]interface{}{
			"input_tokens":  40,
			"output_tokens": 15,
		},
	}
}

// MockAnthropicStreamEvents creates the event sequence for a complete
// Anthropic stream delivering the given deltas.
func MockAnthropicStreamEvents(deltas []string, model string, inputTokens, outputTokens int) []string {
	events := []string{
		marshal(map[string]interface{}{
			"type": "message_start",
			"message": map[string]interface{}{
				"id":    "msg_123",
				"model": model,
				"usage": map[string]interface{}{
					"input_tokens":  inputTokens,
					"output_tokens": 0,
				},
			},
		}),
	}

	for _, delta := range deltas {
		events = append(events, marshal(map[string]interface{}{
			"type": "content_block_delta",
			"delta": map[string]interface{}{
				"type": "text_delta",
				"text": delta,
			},
		}))
	}

	events = append(events,
		marshal(map[string]interface{}{
			"type": "message_delta",
			"delta": map[string]interface{}{
				"stop_reason": "end_turn",
			},
			"usage": map[string]interface{}{
				"output_tokens": outputTokens,
			},
		}),
		marshal(map[string]interface{}{"type": "message_stop"}),
	)

	return events
}

// MockAnthropicToolUseStreamEvents creates the event sequence for a
// complete Anthropic stream answering through a forced tool call: the
// reply JSON arrives as input_json_delta fragments.
func MockAnthropicToolUseStreamEvents(toolName string, jsonFragments []string, model string, inputTokens, outputTokens int) []string {
	events := []string{
		marshal(map[string]interface{}{
			"type": "message_start",
			"message": map[string]interface{}{
				"id":    "msg_123",
				"model": model,
				"usage": map[string]interface{}{
					"input_tokens":  inputTokens,
					"output_tokens": 0,
				},
			},
		}),
		marshal(map[string]interface{}{
			"type": "content_block_start",
			"content_block": map[string]interface{}{
				"type": "tool_use",
				"id":   "toolu_1",
				"name": toolName,
			},
		}),
	}

	for _, fragment := range jsonFragments {
		events = append(events, marshal(map[string]interface{}{
			"type": "content_block_delta",
			"delta": map[string]interface{}{
				"type":         "input_json_delta",
				"partial_json": fragment,
			},
		}))
	}

	events = append(events,
		marshal(map[string]interface{}{"type": "content_block_stop"}),
		marshal(map[string]interface{}{
			"type": "message_delta",
			"delta": map[string]interface{}{
				"stop_reason": "tool_use",
			},
			"usage": map[string]interface{}{
				"output_tokens": outputTokens,
			},
		}),
		marshal(map[string]interface{}{"type": "message_stop"}),
	)

	return events
}

// MockGeminiResponse creates a mock Gemini generateContent response.
func MockGeminiResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": content},
					},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]interface{}{
			"promptTokenCount":     10,
			"candidatesTokenCount": 20,
			"totalTokenCount":      30,
		},
		"modelVersion": model,
	}
}

// MockGeminiStreamChunk creates one mock Gemini streaming fragment.
// A non-empty finishReason marks the last fragment and carries usage.
func MockGeminiStreamChunk(delta, finishReason string, prompt, completion int) string {
	candidate := map[string]interface{}{
		"content": map[string]interface{}{
			"role": "model",
			"parts": []map[string]interface{}{
				{"text": delta},
			},
		},
	}
	fragment := map[string]interface{}{
		"candidates": []map[string]interface{}{candidate},
	}

	if finishReason != "" {
		candidate["finishReason"] = finishReason
		fragment["usageMetadata"] = map[string]interface{}{
			"promptTokenCount":     prompt,
			"candidatesTokenCount": completion,
			"totalTokenCount":      prompt + completion,
		}
	}

	return marshal(fragment)
}

// MockErrorResponse creates a provider-shaped error body.
func MockErrorResponse(message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "api_error",
		},
	}
}

func marshal(v interface{}) string {
	bytes, _ := json.Marshal(v)
	return string(bytes)
}
