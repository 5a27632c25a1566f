package gemini

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

// errStreamDone signals normal end of stream.
var errStreamDone = errors.New("stream done")

// streamReader reads Server-Sent Events from Gemini's streaming API.
// Each data line is a complete geminiResponse fragment.
type streamReader struct {
	provider *providers.HTTPProvider
	body     io.ReadCloser
	scanner  *bufio.Scanner
	model    string
	closed   bool
}

// newStreamReader opens a streaming session against streamGenerateContent.
func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, url string, req *geminiRequest, headers map[string]string, model string) (*streamReader, error) {
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
		model:    model,
	}, nil
}

// Read returns the next chunk from the stream.
// Returns nil, errStreamDone when the stream ends normally.
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

		var event geminiResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
		}

		if len(event.Candidates) == 0 {
			continue
		}

		candidate := event.Candidates[0]

		var delta string
		for _, part := range candidate.Content.Parts {
			delta += part.Text
		}

		chunk := &providers.StreamChunk{
			Model: s.model,
			Delta: delta,
		}

		if candidate.FinishReason != "" {
			chunk.FinishReason = normalizeFinishReason(candidate.FinishReason)
			if event.UsageMetadata != nil {
				chunk.Usage = &providers.TokenUsage{
					PromptTokens:     event.UsageMetadata.PromptTokenCount,
					CompletionTokens: event.UsageMetadata.CandidatesTokenCount,
					TotalTokens:      event.UsageMetadata.TotalTokenCount,
					CachedTokens:     event.UsageMetadata.CachedContentTokenCount,
				}
			}
		}

		if chunk.Delta == "" && chunk.FinishReason == "" {
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
