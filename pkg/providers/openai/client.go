package openai

import (
	"context"
	"fmt"
	"log/slog"

	"roundtable-hq/roundtable/pkg/providers"
)

// Provider is the OpenAI adapter.
// It implements the providers.Provider interface for the Chat Completions
// API, using function calling as the structured output channel.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new OpenAI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
		}
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendChat sends a chat completion request to OpenAI.
func (p *Provider) SendChat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	openaiReq := transformRequest(req)

	var openaiResp openAIResponse
	if err := p.DoJSONRequest(ctx, "POST", p.completionsURL(), openaiReq, &openaiResp, p.headers()); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&openaiResp)
	if err != nil {
		return nil, &providers.ParseError{
			Provider: p.GetName(),
			Cause:    err,
		}
	}

	slog.Debug("chat request succeeded",
		"provider", p.GetName(),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// StreamChat sends a streaming chat completion request to OpenAI.
func (p *Provider) StreamChat(ctx context.Context, req *providers.ChatRequest) (<-chan *providers.StreamChunk, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	openaiReq := transformRequest(req)
	openaiReq.Stream = true
	// Ask for a usage block in the final chunk so streamed calls are
	// accounted from reported counts, not estimates.
	openaiReq.StreamOptions = &streamOptions{IncludeUsage: true}

	stream, err := newStreamReader(ctx, p.HTTPProvider, p.completionsURL(), openaiReq, p.headers())
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk, 100)

	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			chunk, err := stream.Read(ctx)
			if err != nil {
				if err == errStreamDone {
					return
				}
				chunks <- &providers.StreamChunk{Error: err}
				return
			}

			if chunk == nil {
				continue
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}

func (p *Provider) completionsURL() string {
	return fmt.Sprintf("%s/chat/completions", p.GetConfig().BaseURL)
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type":  "application/json",
	}
}
