package tokens

import (
	"strings"
	"sync"

	"roundtable-hq/roundtable/pkg/providers"
)

// Estimator implements character-based token estimation, used when a
// backend does not report usage. It applies model-specific
// characters-per-token ratios; fast and within a few percent for typical
// chat text.
type Estimator struct {
	ratios map[string]float64
	mu     sync.RWMutex
}

// NewEstimator creates a token estimator with the given per-model
// characters-per-token ratios. A nil map uses the default ratio only.
func NewEstimator(ratios map[string]float64) *Estimator {
	if ratios == nil {
		ratios = make(map[string]float64)
	}
	return &Estimator{ratios: ratios}
}

// EstimateText estimates tokens for a single text string.
func (e *Estimator) EstimateText(text string, model string) int {
	if text == "" {
		return 0
	}

	tokens := float64(len(text)) / e.charsPerToken(model)
	if tokens < 1.0 {
		tokens = 1.0 // Minimum 1 token for non-empty text
	}

	return int(tokens + 0.5)
}

// EstimateMessages estimates prompt tokens for a conversation history,
// including per-message formatting overhead.
func (e *Estimator) EstimateMessages(messages []providers.Message, model string) int {
	if len(messages) == 0 {
		return 0
	}

	total := 0
	for _, msg := range messages {
		total += 1 // role
		total += e.EstimateText(msg.Content, model)
		if msg.Name != "" {
			total += e.EstimateText(msg.Name, model)
		}
		total += 3 // per-message formatting overhead
	}

	return total + 3 // conversation framing overhead
}

// EstimateUsage fills in a usage block for a call whose backend reported
// nothing, marking it estimated.
func (e *Estimator) EstimateUsage(messages []providers.Message, completion string, model string) providers.TokenUsage {
	prompt := e.EstimateMessages(messages, model)
	out := e.EstimateText(completion, model)
	return providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
		Estimated:        true,
	}
}

// charsPerToken returns the characters-per-token ratio for a model:
// exact match, then prefix match, then the configured default, then 4.0.
func (e *Estimator) charsPerToken(model string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ratio, ok := e.ratios[model]; ok {
		return ratio
	}

	for pattern, ratio := range e.ratios {
		if pattern != "default" && strings.HasPrefix(model, pattern) {
			return ratio
		}
	}

	if ratio, ok := e.ratios["default"]; ok {
		return ratio
	}

	return 4.0
}
