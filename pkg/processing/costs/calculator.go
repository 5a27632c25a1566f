package costs

import (
	"sync"

	"roundtable-hq/roundtable/pkg/providers"
)

// Calculator prices token usage against the pricing table. It is
// thread-safe and supports hot reload of the table while in use.
type Calculator struct {
	table Table
	mu    sync.RWMutex
}

// NewCalculator creates a cost calculator over the given table.
// A nil table uses the built-in defaults.
func NewCalculator(table Table) *Calculator {
	if table == nil {
		table = DefaultTable()
	}
	return &Calculator{table: table}
}

// Calculate prices actual usage for one completed call.
//
// Cached tokens are already counted inside PromptTokens, so the cache
// discount is computed as a rate difference on the cached portion:
//
//	discount = (cached/1000) * (promptRate - cachedRate)
//
// and subtracted from the prompt cost. Computing it this way rather than
// billing cached tokens as a separate additive line item is what prevents
// double counting. The result is never negative and is monotonically
// non-decreasing in both prompt and completion tokens.
func (c *Calculator) Calculate(provider, model string, usage providers.TokenUsage) *Breakdown {
	c.mu.RLock()
	pricing := c.table.Lookup(provider, model)
	c.mu.RUnlock()

	b := &Breakdown{
		Model:    model,
		Provider: provider,
		Currency: "USD",
	}

	b.PromptCost = tokenCost(usage.PromptTokens, pricing.Prompt)
	b.CompletionCost = tokenCost(usage.CompletionTokens, pricing.Completion)

	cached := usage.CachedTokens
	if cached > usage.PromptTokens {
		cached = usage.PromptTokens
	}
	if cached > 0 && pricing.CachedPrompt > 0 && pricing.CachedPrompt < pricing.Prompt {
		b.CacheDiscount = (float64(cached) / 1000.0) * (pricing.Prompt - pricing.CachedPrompt)
		b.PromptCost -= b.CacheDiscount
		if b.PromptCost < 0 {
			b.PromptCost = 0
		}
	}

	b.TotalCost = b.PromptCost + b.CompletionCost

	return b
}

// Pricing returns the entry used for a provider/model pair.
func (c *Calculator) Pricing(provider, model string) PricingEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table.Lookup(provider, model)
}

// Update replaces the pricing table (hot reload). Safe to call while the
// calculator is in use.
func (c *Calculator) Update(table Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = table
}

// tokenCost prices a token count at a per-1K rate.
func tokenCost(tokens int, ratePer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}
	return (float64(tokens) / 1000.0) * ratePer1K
}
