package providers

import (
	"context"
	"testing"
	"time"

	"roundtable-hq/roundtable/pkg/providers"
)

// TestConfig returns a test provider configuration.
func TestConfig(name, providerType string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:    name,
		Type:    providerType,
		BaseURL: "http://localhost:8080",
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(name, providerType, baseURL string) providers.ProviderConfig {
	config := TestConfig(name, providerType)
	config.BaseURL = baseURL
	return config
}

// TestMessage creates a test message.
func TestMessage(role, content string) providers.Message {
	return providers.Message{
		Role:    role,
		Content: content,
	}
}

// TestChatRequest creates a valid chat request for the given persona.
func TestChatRequest(model, personaName string, messages ...providers.Message) *providers.ChatRequest {
	return &providers.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   100,
		PersonaName: personaName,
	}
}

// TestStreamingRequest creates a valid streaming chat request.
func TestStreamingRequest(model, personaName string, messages ...providers.Message) *providers.ChatRequest {
	req := TestChatRequest(model, personaName, messages...)
	req.Stream = true
	return req
}

// CollectChunks drains a stream channel, failing the test on timeout.
func CollectChunks(t *testing.T, ch <-chan *providers.StreamChunk) []*providers.StreamChunk {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var chunks []*providers.StreamChunk
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, chunk)
		case <-ctx.Done():
			t.Fatal("timed out waiting for stream chunks")
		}
	}
}
