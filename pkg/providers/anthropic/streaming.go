package anthropic

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

// errStreamDone signals normal end of stream (message_stop event).
var errStreamDone = errors.New("stream done")

// jsonMarshalString marshals a value to a JSON string.
func jsonMarshalString(v interface{}) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// streamReader reads Server-Sent Events from Anthropic's streaming API.
type streamReader struct {
	provider *providers.HTTPProvider
	body     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool

	// per-stream state captured from message_start
	id           string
	model        string
	promptTokens int
	cachedTokens int

	// A structured-output stream delivers the reply as input_json_delta
	// fragments instead of text deltas; they accumulate here and surface as
	// StructuredPayload on the message_delta chunk.
	jsonParts strings.Builder
}

// newStreamReader opens a streaming session against the messages endpoint.
func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, url string, req *anthropicRequest, headers map[string]string) (*streamReader, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

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
// Returns nil, errStreamDone when the stream ends normally. Events that do
// not produce a chunk (message_start, content_block_start, ping) yield nil.
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

		event, err := s.readEvent()
		if err != nil {
			if err == io.EOF {
				return nil, errStreamDone
			}
			return nil, &providers.StreamError{
				Provider: s.provider.GetName(),
				Message:  "failed to read stream",
				Cause:    err,
			}
		}

		chunk, done := s.transformEvent(event)
		if done {
			return nil, errStreamDone
		}
		if chunk == nil {
			continue
		}
		return chunk, nil
	}
}

// transformEvent maps one SSE event to at most one chunk.
// The second return value is true when the stream ended.
func (s *streamReader) transformEvent(event *anthropicStreamEvent) (*providers.StreamChunk, bool) {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			s.id = event.Message.ID
			s.model = event.Message.Model
			u := normalizeUsage(&event.Message.Usage)
			s.promptTokens = u.PromptTokens
			s.cachedTokens = u.CachedTokens
		}
		return nil, false

	case "content_block_delta":
		if event.Delta != nil && event.Delta.Text != "" {
			return &providers.StreamChunk{
				ID:    s.id,
				Model: s.model,
				Delta: event.Delta.Text,
			}, false
		}
		if event.Delta != nil && event.Delta.PartialJSON != "" {
			s.jsonParts.WriteString(event.Delta.PartialJSON)
		}
		return nil, false

	case "message_delta":
		chunk := &providers.StreamChunk{
			ID:    s.id,
			Model: s.model,
		}
		if event.Delta != nil {
			chunk.FinishReason = normalizeStopReason(event.Delta.StopReason)
		}
		if event.Usage != nil {
			// message_delta usage carries output tokens only; prompt
			// accounting came with message_start.
			chunk.Usage = &providers.TokenUsage{
				PromptTokens:     s.promptTokens,
				CompletionTokens: event.Usage.OutputTokens,
				TotalTokens:      s.promptTokens + event.Usage.OutputTokens,
				CachedTokens:     s.cachedTokens,
			}
		}
		if s.jsonParts.Len() > 0 {
			chunk.StructuredPayload = s.jsonParts.String()
		}
		return chunk, false

	case "message_stop":
		return nil, true

	default:
		// content_block_start, content_block_stop, ping
		return nil, false
	}
}

// readEvent reads one complete SSE event.
func (s *streamReader) readEvent() (*anthropicStreamEvent, error) {
	var eventType string
	var dataLines []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Empty line marks end of event
		if line == "" {
			if eventType != "" || len(dataLines) > 0 {
				break
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
		// Ignore other SSE fields (id, retry)
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}

	if eventType == "" && len(dataLines) == 0 {
		return nil, io.EOF
	}

	var event anthropicStreamEvent
	if len(dataLines) > 0 {
		data := strings.Join(dataLines, "\n")
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
		}
	}

	if eventType != "" && event.Type == "" {
		event.Type = eventType
	}

	return &event, nil
}

// Close closes the stream and releases the connection.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
