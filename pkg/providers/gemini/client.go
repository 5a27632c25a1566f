package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"roundtable-hq/roundtable/pkg/providers"
)

// Provider is the Gemini adapter.
// It implements the providers.Provider interface for the Generative
// Language API, using a response schema as the structured output channel.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Gemini provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "gemini",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Gemini",
		}
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("Gemini provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendChat sends a generateContent request to Gemini.
func (p *Provider) SendChat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	geminiReq := transformRequest(req)

	var geminiResp geminiResponse
	url := p.modelURL(req.Model, "generateContent")
	if err := p.DoJSONRequest(ctx, "POST", url, geminiReq, &geminiResp, p.headers()); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&geminiResp, req)
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

// StreamChat sends a streaming generateContent request to Gemini.
func (p *Provider) StreamChat(ctx context.Context, req *providers.ChatRequest) (<-chan *providers.StreamChunk, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	geminiReq := transformRequest(req)

	url := p.modelURL(req.Model, "streamGenerateContent") + "&alt=sse"
	stream, err := newStreamReader(ctx, p.HTTPProvider, url, geminiReq, p.headers(), req.Model)
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

func (p *Provider) modelURL(model, method string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:%s?key=%s",
		p.GetConfig().BaseURL, model, method, p.GetConfig().APIKey)
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}
