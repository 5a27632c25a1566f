package structured

import (
	"testing"

	"roundtable-hq/roundtable/pkg/providers"
)

func TestNormalizeStructuredPayload(t *testing.T) {
	resp := &providers.ChatResponse{
		StructuredPayload: `{"speaker":"Bob","content":"Hello there","confidence":0.9,"reasoning":"greeting"}`,
		Content:           "ignored plain text",
	}

	result := Normalize(resp, "Alice")

	// The backend claimed Bob spoke; the requesting persona always wins.
	if result.Speaker != "Alice" {
		t.Errorf("Speaker = %q, want Alice", result.Speaker)
	}
	if result.Content != "Hello there" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Confidence == nil || *result.Confidence != 0.9 {
		t.Errorf("Confidence = %v", result.Confidence)
	}
	if result.Reasoning != "greeting" {
		t.Errorf("Reasoning = %q", result.Reasoning)
	}
}

func TestNormalizeDegradation(t *testing.T) {
	tests := []struct {
		name        string
		resp        *providers.ChatResponse
		wantContent string
	}{
		{
			name:        "nil response",
			resp:        nil,
			wantContent: FallbackContent,
		},
		{
			name:        "empty response",
			resp:        &providers.ChatResponse{},
			wantContent: FallbackContent,
		},
		{
			name: "malformed payload falls back to plain text",
			resp: &providers.ChatResponse{
				StructuredPayload: `{"speaker": truncated`,
				Content:           "plain answer",
			},
			wantContent: "plain answer",
		},
		{
			name: "payload without content falls back to plain text",
			resp: &providers.ChatResponse{
				StructuredPayload: `{"speaker":"Alice"}`,
				Content:           "plain answer",
			},
			wantContent: "plain answer",
		},
		{
			name: "schema-shaped JSON in the text field is honored",
			resp: &providers.ChatResponse{
				Content: `{"speaker":"X","content":"from text JSON"}`,
			},
			wantContent: "from text JSON",
		},
		{
			name: "non-JSON text passes through",
			resp: &providers.ChatResponse{
				Content: "  just prose  ",
			},
			wantContent: "just prose",
		},
		{
			name: "prose in the structured channel is salvaged",
			resp: &providers.ChatResponse{
				StructuredPayload: "The model answered in prose here.",
			},
			wantContent: "The model answered in prose here.",
		},
		{
			name: "whitespace-only everything",
			resp: &providers.ChatResponse{
				Content: "   ",
			},
			wantContent: FallbackContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.resp, "Alice")
			if result == nil {
				t.Fatal("Normalize returned nil")
			}
			if result.Speaker != "Alice" {
				t.Errorf("Speaker = %q, want Alice", result.Speaker)
			}
			if result.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", result.Content, tt.wantContent)
			}
		})
	}
}
