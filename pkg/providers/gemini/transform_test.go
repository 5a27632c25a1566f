package gemini

import (
	"testing"

	"roundtable-hq/roundtable/pkg/providers"
)

func TestTransformRequestRoleMapping(t *testing.T) {
	req := &providers.ChatRequest{
		Model:       "gemini-2.0-flash",
		PersonaName: "Carol",
		Messages: []providers.Message{
			{Role: "system", Content: "Be terse"},
			{Role: "user", Content: "Question"},
			{Role: "assistant", Content: "Answer"},
		},
	}

	out := transformRequest(req)

	if len(out.Contents) != 2 {
		t.Fatalf("len(Contents) = %d, want 2", len(out.Contents))
	}
	if out.Contents[0].Role != "user" || out.Contents[1].Role != "model" {
		t.Errorf("roles = %q, %q", out.Contents[0].Role, out.Contents[1].Role)
	}
	if out.SystemInstruction == nil {
		t.Fatal("system instruction missing")
	}
}

func TestToGeminiSchema(t *testing.T) {
	schema := toGeminiSchema(providers.ResponseSchema())

	if schema["type"] != "OBJECT" {
		t.Errorf("type = %v, want OBJECT", schema["type"])
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("properties missing")
	}
	confidence, ok := props["confidence"].(map[string]interface{})
	if !ok {
		t.Fatal("confidence property missing")
	}
	if confidence["type"] != "NUMBER" {
		t.Errorf("confidence type = %v, want NUMBER", confidence["type"])
	}
	// minimum/maximum are not part of Gemini's schema subset.
	if _, kept := confidence["minimum"]; kept {
		t.Error("minimum should be dropped")
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STOP", providers.FinishReasonStop},
		{"MAX_TOKENS", providers.FinishReasonLength},
		{"SAFETY", "safety"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.in); got != tt.want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransformResponseNoCandidates(t *testing.T) {
	_, err := transformResponse(&geminiResponse{}, &providers.ChatRequest{Model: "gemini-2.0-flash"})
	if err == nil {
		t.Error("expected error for empty candidates")
	}
}
