package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"roundtable-hq/roundtable/pkg/providers"
)

// errStreamDone signals normal end of stream ("data: [DONE]").
var errStreamDone = errors.New("stream done")

// streamReader reads Server-Sent Events from OpenAI's streaming API.
type streamReader struct {
	provider *providers.HTTPProvider
	body     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool

	// A structured-output stream delivers the reply as function-call
	// argument fragments instead of text deltas; they accumulate here and
	// surface as StructuredPayload on the finish chunk.
	args        strings.Builder
	argsEmitted bool
}

// newStreamReader opens a streaming session against the completions endpoint.
func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, url string, req *openAIRequest, headers map[string]string) (*streamReader, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers["Accept"] = "text/event-stream"

	resp, err := provider.DoRequest(ctx, "POST", url, bodyBytes, headers)
	if err != nil {
		return nil, err
	}

	return &streamReader{
		provider: provider,
		body:     resp.Body,
		scanner:  bufio.NewScanner(resp.Body),
	}, nil
}

// Read returns the next chunk from the stream.
// Returns nil, errStreamDone when the stream ends normally.
// Chunks that carry neither a delta, a finish reason, nor usage are
// collapsed to nil so the caller can skip them; function-call argument
// fragments are recorded but collapsed the same way until the stream
// finishes.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.closed {
		return nil, errStreamDone
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, &providers.StreamError{
					Provider: s.provider.GetName(),
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, errStreamDone
		}

		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil, errStreamDone
		}

		var event openAIStreamResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
		}

		chunk := &providers.StreamChunk{
			ID:    event.ID,
			Model: event.Model,
		}

		if len(event.Choices) > 0 {
			delta := event.Choices[0].Delta
			chunk.Delta = delta.Content
			chunk.FinishReason = normalizeFinishReason(event.Choices[0].FinishReason)
			for _, call := range delta.ToolCalls {
				s.args.WriteString(call.Function.Arguments)
			}
		}

		if event.Usage != nil {
			chunk.Usage = &providers.TokenUsage{
				PromptTokens:     event.Usage.PromptTokens,
				CompletionTokens: event.Usage.CompletionTokens,
				TotalTokens:      event.Usage.TotalTokens,
			}
			if event.Usage.PromptTokensDetails != nil {
				chunk.Usage.CachedTokens = event.Usage.PromptTokensDetails.CachedTokens
			}
		}

		// The completed function-call arguments ride on the finish chunk
		// (or the trailing usage chunk when the finish chunk was collapsed).
		if !s.argsEmitted && s.args.Len() > 0 && (chunk.FinishReason != "" || chunk.Usage != nil) {
			chunk.StructuredPayload = s.args.String()
			s.argsEmitted = true
		}

		if chunk.Delta == "" && chunk.FinishReason == "" && chunk.Usage == nil && chunk.StructuredPayload == "" {
			continue
		}

		return chunk, nil
	}
}

// Close closes the stream and releases the connection.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
