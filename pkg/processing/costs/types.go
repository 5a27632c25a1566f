package costs

// PricingEntry holds per-1K-token USD rates for one model. The whole table
// is expressed per 1K tokens; scales are never mixed within a table.
type PricingEntry struct {
	// Prompt is the cost per 1000 prompt tokens.
	Prompt float64 `yaml:"prompt"`

	// Completion is the cost per 1000 completion tokens.
	Completion float64 `yaml:"completion"`

	// CachedPrompt is the cost per 1000 cached prompt tokens. Zero means
	// the model has no cache discount.
	CachedPrompt float64 `yaml:"cached_prompt,omitempty"`
}

// Table maps provider name to model name to pricing.
// The "default"/"default" entry is the conservative fallback used for
// unknown models; cost estimation must always succeed.
type Table map[string]map[string]PricingEntry

// Breakdown is the result of one cost calculation, in USD.
// Values keep full float precision; rounding happens only at display time
// so accumulation across many small messages does not compound error.
type Breakdown struct {
	// PromptCost is the cost of prompt tokens after the cache discount.
	PromptCost float64

	// CompletionCost is the cost of completion tokens.
	CompletionCost float64

	// CacheDiscount is the amount saved by cached prompt tokens. Always
	// non-negative; zero when no tokens were cached.
	CacheDiscount float64

	// TotalCost is PromptCost + CompletionCost.
	TotalCost float64

	// Model is the model used for pricing.
	Model string

	// Provider is the provider name.
	Provider string

	// Currency is the currency code (always "USD").
	Currency string
}
