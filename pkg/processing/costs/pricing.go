package costs

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTable returns the built-in pricing table, in USD per 1K tokens.
// It is the fallback when no pricing file is configured and the base a
// loaded file overlays.
func DefaultTable() Table {
	return Table{
		"openai": {
			"gpt-4o":        {Prompt: 0.0025, Completion: 0.01, CachedPrompt: 0.00125},
			"gpt-4o-mini":   {Prompt: 0.00015, Completion: 0.0006, CachedPrompt: 0.000075},
			"gpt-4-turbo":   {Prompt: 0.01, Completion: 0.03},
			"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
		},
		"anthropic": {
			"claude-3-5-sonnet": {Prompt: 0.003, Completion: 0.015, CachedPrompt: 0.0003},
			"claude-3-5-haiku":  {Prompt: 0.0008, Completion: 0.004, CachedPrompt: 0.00008},
			"claude-3-opus":     {Prompt: 0.015, Completion: 0.075, CachedPrompt: 0.0015},
			"claude-3-haiku":    {Prompt: 0.00025, Completion: 0.00125},
		},
		"gemini": {
			"gemini-1.5-pro":   {Prompt: 0.00125, Completion: 0.005, CachedPrompt: 0.0003125},
			"gemini-1.5-flash": {Prompt: 0.000075, Completion: 0.0003, CachedPrompt: 0.00001875},
			"gemini-2.0-flash": {Prompt: 0.0001, Completion: 0.0004, CachedPrompt: 0.000025},
		},
		"default": {
			"default": {Prompt: 0.001, Completion: 0.002},
		},
	}
}

// LoadTable reads a pricing table from a YAML file. Entries overlay the
// default table, so a file only needs to list the models it overrides.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var loaded Table
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %q: %w", path, err)
	}

	table := DefaultTable()
	for provider, models := range loaded {
		if table[provider] == nil {
			table[provider] = make(map[string]PricingEntry, len(models))
		}
		for model, entry := range models {
			table[provider][model] = entry
		}
	}

	return table, nil
}

// Lookup resolves the pricing entry for a provider/model pair: exact
// match, then longest model-prefix match (so "gpt-4o" covers
// "gpt-4o-2024-08-06" but "gpt-4o-mini" wins for "gpt-4o-mini-..."), then
// the default entry. It never fails; an unknown model must not fail the
// call it is pricing.
func (t Table) Lookup(provider, model string) PricingEntry {
	if models, ok := t[provider]; ok {
		if entry, ok := models[model]; ok {
			return entry
		}

		longest := ""
		var matched PricingEntry
		for pattern, entry := range models {
			if strings.HasPrefix(model, pattern) && len(pattern) > len(longest) {
				longest = pattern
				matched = entry
			}
		}
		if longest != "" {
			return matched
		}
	}

	if models, ok := t["default"]; ok {
		if entry, ok := models["default"]; ok {
			return entry
		}
	}

	// A table without a default entry still must price the call.
	return PricingEntry{Prompt: 0.001, Completion: 0.002}
}
