// Package providerfactory creates and manages provider adapter instances.
// Adding a backend means adding one adapter package and one case in the
// factory switch; nothing else in the engine changes.
package providerfactory

import (
	"fmt"
	"log/slog"
	"strings"

	"roundtable-hq/roundtable/pkg/providers"
	"roundtable-hq/roundtable/pkg/providers/anthropic"
	"roundtable-hq/roundtable/pkg/providers/gemini"
	"roundtable-hq/roundtable/pkg/providers/openai"
)

// NewProvider creates a provider adapter from its configuration.
//
// Supported provider types:
//   - "openai": OpenAI Chat Completions API
//   - "anthropic": Anthropic Messages API
//   - "gemini": Google Gemini generateContent API
//
// The type is taken from config.Type, or inferred from the provider name
// when unset.
func NewProvider(config providers.ProviderConfig) (providers.Provider, error) {
	providerType := config.Type
	if providerType == "" {
		providerType = inferProviderType(config.Name)
		config.Type = providerType
	}

	slog.Debug("creating provider",
		"name", config.Name,
		"type", providerType,
		"base_url", config.BaseURL,
	)

	var provider providers.Provider
	var err error

	switch providerType {
	case "openai":
		provider, err = openai.NewProvider(config)

	case "anthropic":
		provider, err = anthropic.NewProvider(config)

	case "gemini":
		provider, err = gemini.NewProvider(config)

	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, gemini)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", config.Name, err)
	}

	return provider, nil
}

// inferProviderType guesses the adapter type from a provider name.
func inferProviderType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "anthropic") || strings.Contains(lower, "claude"):
		return "anthropic"
	case strings.Contains(lower, "gemini") || strings.Contains(lower, "google"):
		return "gemini"
	default:
		return "openai"
	}
}
