package anthropic

import (
	"context"
	"fmt"
	"log/slog"

	"roundtable-hq/roundtable/pkg/providers"
)

// Provider is the Anthropic adapter.
// It implements the providers.Provider interface for the Messages API,
// using forced tool use as the structured output channel.
type Provider struct {
	*providers.HTTPProvider
}

// DefaultAnthropicVersion is the API version to use.
const DefaultAnthropicVersion = "2023-06-01"

// NewProvider creates a new Anthropic provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendChat sends a messages request to Anthropic.
func (p *Provider) SendChat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	anthropicReq := transformRequest(req)

	var anthropicResp anthropicResponse
	if err := p.DoJSONRequest(ctx, "POST", p.messagesURL(), anthropicReq, &anthropicResp, p.headers(false)); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&anthropicResp)
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

// StreamChat sends a streaming messages request to Anthropic.
func (p *Provider) StreamChat(ctx context.Context, req *providers.ChatRequest) (<-chan *providers.StreamChunk, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	anthropicReq := transformRequest(req)
	anthropicReq.Stream = true

	stream, err := newStreamReader(ctx, p.HTTPProvider, p.messagesURL(), anthropicReq, p.headers(true))
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

func (p *Provider) messagesURL() string {
	return fmt.Sprintf("%s/v1/messages", p.GetConfig().BaseURL)
}

func (p *Provider) headers(streaming bool) map[string]string {
	h := map[string]string{
		"x-api-key":         p.GetConfig().APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
	}
	if streaming {
		h["Accept"] = "text/event-stream"
	}
	return h
}
