package anthropic

import (
	"context"
	"errors"
	"strings"
	"testing"

	mock "roundtable-hq/roundtable/internal/providers"
	"roundtable-hq/roundtable/pkg/providers"
)

func TestSendChat(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()

	server.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: 200,
		Body:       mock.MockAnthropicResponse("Hello from Bob.", "claude-sonnet-4"),
	})

	p, err := NewProvider(mock.TestConfigWithURL("anthropic", "anthropic", server.URL()))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.SendChat(context.Background(), mock.TestChatRequest(
		"claude-sonnet-4", "Bob", mock.TestMessage("user", "Say hello")))
	if err != nil {
		t.Fatalf("SendChat() error = %v", err)
	}

	if resp.Content != "Hello from Bob." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 20 || resp.Usage.TotalTokens != 30 {
		t.Errorf("Usage = %+v", resp.Usage)
	}

	// The persona instruction travels in the system field.
	body := string(server.LastBody())
	if !strings.Contains(body, `"system"`) || !strings.Contains(body, "You are Bob") {
		t.Errorf("persona instruction missing from system field: %s", body)
	}
}

func TestSendChatStructuredOutput(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()

	server.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: 200,
		Body: mock.MockAnthropicToolUseResponse(providers.StructuredOutputName,
			map[string]interface{}{"speaker": "Bob", "content": "Structured hello"},
			"claude-sonnet-4"),
	})

	p, err := NewProvider(mock.TestConfigWithURL("anthropic", "anthropic", server.URL()))
	if err != nil {
		t.Fatal(err)
	}

	req := mock.TestChatRequest("claude-sonnet-4", "Bob", mock.TestMessage("user", "Say hello"))
	req.StructuredOutput = true

	resp, err := p.SendChat(context.Background(), req)
	if err != nil {
		t.Fatalf("SendChat() error = %v", err)
	}

	if !strings.Contains(resp.StructuredPayload, `"content":"Structured hello"`) {
		t.Errorf("StructuredPayload = %q", resp.StructuredPayload)
	}
	if resp.FinishReason != providers.FinishReasonToolUse {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
}

func TestSendChatRateLimit(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()

	server.SetResponse("/v1/messages", mock.MockResponse{
		StatusCode: 429,
		Body:       mock.MockErrorResponse("rate limited"),
	})

	p, err := NewProvider(mock.TestConfigWithURL("anthropic", "anthropic", server.URL()))
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.SendChat(context.Background(), mock.TestChatRequest(
		"claude-sonnet-4", "Bob", mock.TestMessage("user", "hi")))

	var rateLimitErr *providers.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Errorf("error type = %T, want *RateLimitError", err)
	}
}

func TestStreamChat(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()

	server.SetResponse("/v1/messages", mock.MockResponse{
		StreamChunks: mock.MockAnthropicStreamEvents(
			[]string{"Hello ", "world."}, "claude-sonnet-4", 50, 10),
	})

	p, err := NewProvider(mock.TestConfigWithURL("anthropic", "anthropic", server.URL()))
	if err != nil {
		t.Fatal(err)
	}

	ch, err := p.StreamChat(context.Background(), mock.TestStreamingRequest(
		"claude-sonnet-4", "Bob", mock.TestMessage("user", "Say hello")))
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	chunks := mock.CollectChunks(t, ch)

	var text string
	var usage *providers.TokenUsage
	var finish string
	for _, chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("chunk error: %v", chunk.Error)
		}
		text += chunk.Delta
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	if text != "Hello world." {
		t.Errorf("accumulated text = %q", text)
	}
	if finish != providers.FinishReasonStop {
		t.Errorf("finish reason = %q", finish)
	}
	// Prompt accounting comes from message_start, output from message_delta.
	if usage == nil || usage.PromptTokens != 50 || usage.CompletionTokens != 10 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestStreamChatStructuredOutput(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()

	// A forced tool call streams the reply as input_json_delta fragments,
	// not text deltas. The adapter must reassemble them.
	payload := `{"speaker":"Bob","content":"Here is the summary."}`
	server.SetResponse("/v1/messages", mock.MockResponse{
		StreamChunks: mock.MockAnthropicToolUseStreamEvents(
			providers.StructuredOutputName,
			[]string{`{"speaker":"Bob",`, `"content":"Here is `, `the summary."}`},
			"claude-sonnet-4", 50, 10),
	})

	p, err := NewProvider(mock.TestConfigWithURL("anthropic", "anthropic", server.URL()))
	if err != nil {
		t.Fatal(err)
	}

	req := mock.TestStreamingRequest("claude-sonnet-4", "Bob", mock.TestMessage("user", "Summarize the plan"))
	req.StructuredOutput = true

	ch, err := p.StreamChat(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	var structuredPayload, finish string
	var usage *providers.TokenUsage
	for _, chunk := range mock.CollectChunks(t, ch) {
		if chunk.Error != nil {
			t.Fatalf("chunk error: %v", chunk.Error)
		}
		if chunk.Delta != "" {
			t.Errorf("JSON fragments must not surface as text deltas, got %q", chunk.Delta)
		}
		if chunk.StructuredPayload != "" {
			structuredPayload = chunk.StructuredPayload
		}
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	if structuredPayload != payload {
		t.Errorf("StructuredPayload = %q, want %q", structuredPayload, payload)
	}
	if finish != providers.FinishReasonToolUse {
		t.Errorf("finish reason = %q", finish)
	}
	if usage == nil || usage.PromptTokens != 50 || usage.CompletionTokens != 10 {
		t.Errorf("usage = %+v", usage)
	}
}
