package openai

import (
	"strings"
	"testing"

	"roundtable-hq/roundtable/pkg/providers"
)

func TestTransformRequestAppendsPersonaInstruction(t *testing.T) {
	req := &providers.ChatRequest{
		Model:       "gpt-4o-mini",
		PersonaName: "Alice",
		Messages: []providers.Message{
			{Role: "system", Content: "Be helpful"},
			{Role: "user", Content: "Hello"},
		},
	}

	out := transformRequest(req)

	if len(out.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(out.Messages))
	}
	last := out.Messages[len(out.Messages)-1]
	if last.Role != providers.RoleSystem {
		t.Errorf("instruction role = %q", last.Role)
	}
	if want := "You are Alice"; !strings.Contains(last.Content, want) {
		t.Errorf("instruction content = %q, want substring %q", last.Content, want)
	}
}

func TestTransformResponseNoChoices(t *testing.T) {
	_, err := transformResponse(&openAIResponse{})
	if err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestTransformResponseCachedTokens(t *testing.T) {
	resp, err := transformResponse(&openAIResponse{
		Choices: []openAIChoice{{Message: openAIMessage{Content: "hi"}}},
		Usage: openAIUsage{
			PromptTokens:        100,
			CompletionTokens:    10,
			TotalTokens:         110,
			PromptTokensDetails: &promptTokenDetails{CachedTokens: 80},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Usage.CachedTokens != 80 {
		t.Errorf("CachedTokens = %d, want 80", resp.Usage.CachedTokens)
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stop", providers.FinishReasonStop},
		{"length", providers.FinishReasonLength},
		{"tool_calls", providers.FinishReasonToolUse},
		{"function_call", providers.FinishReasonToolUse},
		{"content_filter", "content_filter"},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.in); got != tt.want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
