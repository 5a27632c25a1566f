package config

import "time"

// Config is the root configuration structure for the conversation engine.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and shutdown behavior.
	Server ServerConfig `yaml:"server"`

	// Providers contains configuration for all backend provider adapters.
	// Keys are provider names (e.g., "openai", "anthropic", "gemini").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Pricing contains configuration for the cost pricing table.
	Pricing PricingConfig `yaml:"pricing"`

	// Ledger contains configuration for cost record persistence.
	Ledger LedgerConfig `yaml:"ledger"`

	// Cache contains configuration for the snapshot cache.
	Cache CacheConfig `yaml:"cache"`

	// CacheStats contains configuration for cache hit/miss event storage.
	CacheStats CacheStatsConfig `yaml:"cache_stats"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Streaming responses disable it per-request.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig contains configuration for a single provider adapter.
type ProviderConfig struct {
	// Type is the adapter type ("openai", "anthropic", "gemini").
	// Inferred from the provider name when empty.
	Type string `yaml:"type"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key. Supports ${ENV_VAR} expansion.
	APIKey string `yaml:"api_key"`

	// Timeout bounds every outbound call to this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// PricingConfig contains configuration for the pricing table.
type PricingConfig struct {
	// TablePath is a YAML file overlaying the built-in pricing defaults.
	// Empty uses the defaults only.
	TablePath string `yaml:"table_path"`

	// Watch reloads the table when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// EstimatorRatios maps model names (or prefixes, or "default") to
	// characters-per-token ratios used when a backend reports no usage.
	EstimatorRatios map[string]float64 `yaml:"estimator_ratios"`
}

// LedgerConfig contains configuration for cost record persistence.
type LedgerConfig struct {
	// Backend selects the store: "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/costs.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionMaxAge is how long cost records are kept. Zero disables
	// purging.
	// Default: 2160h (90 days)
	RetentionMaxAge time.Duration `yaml:"retention_max_age"`

	// RetentionSchedule is the cron expression for purge runs.
	// Default: "@hourly"
	RetentionSchedule string `yaml:"retention_schedule"`
}

// CacheConfig contains configuration for the snapshot cache.
type CacheConfig struct {
	// TTL is the per-entry lifetime.
	// Default: 15m
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the cache size.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`
}

// CacheStatsConfig contains configuration for cache event storage.
type CacheStatsConfig struct {
	// Backend selects the store: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/cache_events.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is where the scrape endpoint is mounted.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
