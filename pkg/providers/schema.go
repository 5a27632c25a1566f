package providers

import "fmt"

// StructuredOutputName is the function/tool name adapters register when
// requesting schema-constrained output from a backend.
const StructuredOutputName = "persona_response"

// ResponseSchema returns the JSON Schema for the structured response channel.
// Each adapter wires it into the output mechanism native to its backend:
// OpenAI function calling, Anthropic tool use, Gemini responseSchema.
//
// The returned map is freshly built on each call so adapters may mutate it
// for backend-specific quirks without racing each other.
func ResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"speaker": map[string]interface{}{
				"type":        "string",
				"description": "Name of the persona speaking",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The response text",
			},
			"confidence": map[string]interface{}{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "How confident the persona is in this response",
			},
			"reasoning": map[string]interface{}{
				"type":        "string",
				"description": "Brief reasoning behind the response",
			},
			"metadata": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tone": map[string]interface{}{
						"type": "string",
					},
					"isFollowUp": map[string]interface{}{
						"type": "boolean",
					},
					"mentionedSpeakers": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"topics": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
		"required": []string{"speaker", "content"},
	}
}

// PersonaInstruction builds the instruction message appended to every
// outbound request. Free-text parsing of "who is speaking" is unreliable
// across models, so the instruction pins the identity and the structured
// channel carries the rest.
func PersonaInstruction(personaName string) Message {
	return Message{
		Role: RoleSystem,
		Content: fmt.Sprintf(
			"You are %s. Respond only as %s. Do not speak for any other participant. "+
				"Mention another participant as @Name when addressing them.",
			personaName, personaName),
	}
}

// ValidateRequest checks the canonical request before any network call.
// Messages must be non-empty and PersonaName is required: it is used both
// to instruct the backend to self-identify and to force the output speaker.
func ValidateRequest(req *ChatRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	if req.PersonaName == "" {
		return &ValidationError{Field: "persona_name", Message: "persona name is required"}
	}
	return nil
}
