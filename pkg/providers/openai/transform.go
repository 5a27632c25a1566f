package openai

import (
	"fmt"

	"roundtable-hq/roundtable/pkg/providers"
)

// OpenAI Chat Completions wire types.

type openAIRequest struct {
	Model         string           `json:"model"`
	Messages      []openAIMessage  `json:"messages"`
	Temperature   float64          `json:"temperature,omitempty"`
	MaxTokens     int              `json:"max_tokens,omitempty"`
	Stream        bool             `json:"stream,omitempty"`
	StreamOptions *streamOptions   `json:"stream_options,omitempty"`
	Tools         []openAITool     `json:"tools,omitempty"`
	ToolChoice    interface{}      `json:"tool_choice,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type openAIMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	Name      string           `json:"name,omitempty"`
	ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string                   `json:"type"`
	Function openAIFunctionDefinition `json:"function"`
}

type openAIFunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens        int                 `json:"prompt_tokens"`
	CompletionTokens    int                 `json:"completion_tokens"`
	TotalTokens         int                 `json:"total_tokens"`
	PromptTokensDetails *promptTokenDetails `json:"prompt_tokens_details,omitempty"`
}

type promptTokenDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// Streaming wire types.

type openAIStreamResponse struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Created int64                `json:"created"`
	Model   string               `json:"model"`
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *openAIUsage         `json:"usage,omitempty"`
}

type openAIStreamChoice struct {
	Index        int               `json:"index"`
	Delta        openAIStreamDelta `json:"delta"`
	FinishReason string            `json:"finish_reason,omitempty"`
}

type openAIStreamDelta struct {
	Role      string                 `json:"role,omitempty"`
	Content   string                 `json:"content,omitempty"`
	ToolCalls []openAIStreamToolCall `json:"tool_calls,omitempty"`
}

// openAIStreamToolCall carries one function-call fragment. The function
// name arrives on the first fragment only; arguments accumulate across
// fragments.
type openAIStreamToolCall struct {
	Index    int                `json:"index"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function openAIFunctionCall `json:"function"`
}

// transformRequest transforms a canonical request to OpenAI format.
// The persona instruction is appended after the caller-supplied history so
// it is the last word the model sees.
func transformRequest(req *providers.ChatRequest) *openAIRequest {
	messages := make([]openAIMessage, 0, len(req.Messages)+1)
	for _, msg := range req.Messages {
		messages = append(messages, openAIMessage{
			Role:    msg.Role,
			Content: msg.Content,
			Name:    msg.Name,
		})
	}

	instruction := providers.PersonaInstruction(req.PersonaName)
	messages = append(messages, openAIMessage{
		Role:    instruction.Role,
		Content: instruction.Content,
	})

	openaiReq := &openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}

	if req.StructuredOutput {
		openaiReq.Tools = []openAITool{
			{
				Type: "function",
				Function: openAIFunctionDefinition{
					Name:        providers.StructuredOutputName,
					Description: "Produce the persona's reply in structured form",
					Parameters:  providers.ResponseSchema(),
				},
			},
		}
		openaiReq.ToolChoice = map[string]interface{}{
			"type":     "function",
			"function": map[string]interface{}{"name": providers.StructuredOutputName},
		}
	}

	return openaiReq
}

// transformResponse transforms an OpenAI response to canonical format.
// When the model answered through the forced function call, the raw
// arguments travel in StructuredPayload for the normalizer to interpret.
func transformResponse(resp *openAIResponse) (*providers.ChatResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contains no choices")
	}

	choice := resp.Choices[0]

	result := &providers.ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Created: resp.Created,
	}

	if resp.Usage.PromptTokensDetails != nil {
		result.Usage.CachedTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	for _, call := range choice.Message.ToolCalls {
		if call.Function.Name == providers.StructuredOutputName {
			result.StructuredPayload = call.Function.Arguments
			break
		}
	}

	return result, nil
}

// normalizeFinishReason maps OpenAI finish reasons to canonical values.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "tool_calls", "function_call":
		return providers.FinishReasonToolUse
	default:
		return reason
	}
}
