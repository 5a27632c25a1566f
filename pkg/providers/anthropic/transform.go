package anthropic

import (
	"fmt"
	"strings"

	"roundtable-hq/roundtable/pkg/providers"
)

// Anthropic Messages API wire types.

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  interface{}        `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type contentBlock struct {
	Type string `json:"type"` // "text" or "tool_use"
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`
}

type anthropicResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      anthropicUsage `json:"usage"`
}

type anthropicUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens,omitempty"`
	CacheCreationTokens int `json:"cache_creation_input_tokens,omitempty"`
}

// Streaming wire types.

type anthropicStreamEvent struct {
	Type string `json:"type"`

	// For message_start
	Message *anthropicResponse `json:"message,omitempty"`

	// For content_block_delta and message_delta
	Delta *streamDelta `json:"delta,omitempty"`

	// For message_delta
	Usage *anthropicUsage `json:"usage,omitempty"`
}

// streamDelta carries both content_block_delta and message_delta payloads;
// the event type disambiguates which fields are populated.
type streamDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// transformRequest transforms a canonical request to Anthropic format.
//
// System messages move to the dedicated system field, with the persona
// instruction appended last. The Messages API requires strictly alternating
// user/assistant turns starting with user, which a multi-persona history
// does not guarantee, so consecutive same-role messages are merged and a
// leading assistant turn is folded into a user turn.
func transformRequest(req *providers.ChatRequest) *anthropicRequest {
	anthropicReq := &anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}

	// max_tokens is required by Anthropic
	if anthropicReq.MaxTokens == 0 {
		anthropicReq.MaxTokens = 4096
	}

	var systemParts []string
	var turns []anthropicMessage

	for _, msg := range req.Messages {
		if msg.Role == providers.RoleSystem {
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}
			continue
		}

		content := msg.Content
		if msg.Name != "" && msg.Role == providers.RoleAssistant {
			content = fmt.Sprintf("%s: %s", msg.Name, msg.Content)
		}

		if len(turns) > 0 && turns[len(turns)-1].Role == msg.Role {
			turns[len(turns)-1].Content += "\n\n" + content
			continue
		}

		turns = append(turns, anthropicMessage{Role: msg.Role, Content: content})
	}

	if len(turns) > 0 && turns[0].Role == providers.RoleAssistant {
		turns[0].Role = providers.RoleUser
	}
	if len(turns) == 0 {
		turns = append(turns, anthropicMessage{Role: providers.RoleUser, Content: "(continue the conversation)"})
	}

	instruction := providers.PersonaInstruction(req.PersonaName)
	systemParts = append(systemParts, instruction.Content)

	anthropicReq.System = strings.Join(systemParts, "\n\n")
	anthropicReq.Messages = turns

	if req.StructuredOutput {
		anthropicReq.Tools = []anthropicTool{
			{
				Name:        providers.StructuredOutputName,
				Description: "Produce the persona's reply in structured form",
				InputSchema: providers.ResponseSchema(),
			},
		}
		anthropicReq.ToolChoice = map[string]interface{}{
			"type": "tool",
			"name": providers.StructuredOutputName,
		}
	}

	return anthropicReq
}

// transformResponse transforms an Anthropic response to canonical format.
func transformResponse(resp *anthropicResponse) (*providers.ChatResponse, error) {
	var content string
	var structuredPayload string

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.Text

		case "tool_use":
			if block.Name == providers.StructuredOutputName && block.Input != nil {
				payload, err := jsonMarshalString(block.Input)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal tool input: %w", err)
				}
				structuredPayload = payload
			}
		}
	}

	return &providers.ChatResponse{
		ID:                resp.ID,
		Model:             resp.Model,
		Content:           content,
		StructuredPayload: structuredPayload,
		FinishReason:      normalizeStopReason(resp.StopReason),
		Usage:             normalizeUsage(&resp.Usage),
	}, nil
}

// normalizeUsage maps Anthropic token accounting onto the canonical
// contract. Anthropic reports cache-read tokens separately from
// input_tokens; canonically, cached tokens are counted inside PromptTokens.
func normalizeUsage(u *anthropicUsage) providers.TokenUsage {
	prompt := u.InputTokens + u.CacheReadTokens + u.CacheCreationTokens
	return providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      prompt + u.OutputTokens,
		CachedTokens:     u.CacheReadTokens,
	}
}

// normalizeStopReason maps Anthropic stop reasons to canonical values.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	case "tool_use":
		return providers.FinishReasonToolUse
	default:
		return reason
	}
}
