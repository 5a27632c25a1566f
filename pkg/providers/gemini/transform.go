package gemini

import (
	"fmt"
	"strings"
	"time"

	"roundtable-hq/roundtable/pkg/providers"
)

// Gemini Generative Language API wire types.

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64                `json:"temperature,omitempty"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *usageMetadata    `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type usageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount"`
	CandidatesTokenCount    int `json:"candidatesTokenCount"`
	TotalTokenCount         int `json:"totalTokenCount"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
}

// transformRequest transforms a canonical request to Gemini format.
//
// System messages and the persona instruction travel in systemInstruction;
// assistant turns map to the "model" role. When structured output is
// requested, the response schema constrains the whole response body via
// responseMimeType + responseSchema, Gemini's native mechanism.
func transformRequest(req *providers.ChatRequest) *geminiRequest {
	var systemParts []string
	var contents []geminiContent

	for _, msg := range req.Messages {
		switch msg.Role {
		case providers.RoleSystem:
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}

		case providers.RoleAssistant:
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})

		default:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	instruction := providers.PersonaInstruction(req.PersonaName)
	systemParts = append(systemParts, instruction.Content)

	geminiReq := &geminiRequest{
		Contents: contents,
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: strings.Join(systemParts, "\n\n")}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	if req.StructuredOutput {
		geminiReq.GenerationConfig.ResponseMimeType = "application/json"
		geminiReq.GenerationConfig.ResponseSchema = toGeminiSchema(providers.ResponseSchema())
	}

	return geminiReq
}

// transformResponse transforms a Gemini response to canonical format.
// With a response schema in force the whole text part is the structured
// payload; otherwise it is plain content.
func transformResponse(resp *geminiResponse, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("response contains no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}

	result := &providers.ChatResponse{
		Model:        req.Model,
		FinishReason: normalizeFinishReason(resp.Candidates[0].FinishReason),
		Created:      time.Now().Unix(),
	}
	if resp.ModelVersion != "" {
		result.Model = resp.ModelVersion
	}

	if req.StructuredOutput {
		result.StructuredPayload = text
	} else {
		result.Content = text
	}

	if resp.UsageMetadata != nil {
		result.Usage = providers.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
			CachedTokens:     resp.UsageMetadata.CachedContentTokenCount,
		}
	}

	return result, nil
}

// toGeminiSchema converts a JSON Schema to Gemini's OpenAPI-style schema:
// type names are uppercased and unsupported keywords are dropped.
func toGeminiSchema(schema map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(schema))

	for key, value := range schema {
		switch key {
		case "type":
			if s, ok := value.(string); ok {
				out[key] = strings.ToUpper(s)
			}

		case "properties":
			if props, ok := value.(map[string]interface{}); ok {
				converted := make(map[string]interface{}, len(props))
				for name, sub := range props {
					if subSchema, ok := sub.(map[string]interface{}); ok {
						converted[name] = toGeminiSchema(subSchema)
					}
				}
				out[key] = converted
			}

		case "items":
			if subSchema, ok := value.(map[string]interface{}); ok {
				out[key] = toGeminiSchema(subSchema)
			}

		case "required", "description":
			out[key] = value

		default:
			// minimum, maximum and friends are not part of Gemini's
			// schema subset; drop them.
		}
	}

	return out
}

// normalizeFinishReason maps Gemini finish reasons to canonical values.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return providers.FinishReasonStop
	case "MAX_TOKENS":
		return providers.FinishReasonLength
	case "":
		return ""
	default:
		return strings.ToLower(reason)
	}
}
