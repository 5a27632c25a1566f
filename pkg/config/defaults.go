package config

import "time"

// Default values for configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultProviderTimeout = 60 * time.Second

	DefaultLedgerBackend     = "sqlite"
	DefaultLedgerSQLitePath  = "data/costs.db"
	DefaultRetentionMaxAge   = 90 * 24 * time.Hour
	DefaultRetentionSchedule = "@hourly"

	DefaultCacheTTL        = 15 * time.Minute
	DefaultCacheMaxEntries = 10000

	DefaultCacheStatsBackend    = "memory"
	DefaultCacheStatsSQLitePath = "data/cache_events.db"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills in default values for unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	for name, provider := range cfg.Providers {
		if provider.Timeout == 0 {
			provider.Timeout = DefaultProviderTimeout
		}
		cfg.Providers[name] = provider
	}

	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Ledger.SQLitePath == "" {
		cfg.Ledger.SQLitePath = DefaultLedgerSQLitePath
	}
	if cfg.Ledger.RetentionMaxAge == 0 {
		cfg.Ledger.RetentionMaxAge = DefaultRetentionMaxAge
	}
	if cfg.Ledger.RetentionSchedule == "" {
		cfg.Ledger.RetentionSchedule = DefaultRetentionSchedule
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}

	if cfg.CacheStats.Backend == "" {
		cfg.CacheStats.Backend = DefaultCacheStatsBackend
	}
	if cfg.CacheStats.SQLitePath == "" {
		cfg.CacheStats.SQLitePath = DefaultCacheStatsSQLitePath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		enabled := true
		cfg.Telemetry.Metrics.Enabled = &enabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with all defaults applied and no
// providers.
func DefaultConfig() *Config {
	cfg := &Config{Providers: make(map[string]ProviderConfig)}
	ApplyDefaults(cfg)
	return cfg
}
