package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration field %q: %s", e.Field, e.Message)
}

// Validate checks the configuration for consistency. It is called after
// defaults are applied, so zero values for defaulted fields are bugs.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return &ValidationError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("must be host:port, got %q", cfg.Server.ListenAddress),
		}
	}

	for name, provider := range cfg.Providers {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: "providers", Message: "provider name cannot be empty"}
		}
		if provider.APIKey == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("providers.%s.api_key", name),
				Message: "api key is required",
			}
		}
		if provider.Timeout <= 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("providers.%s.timeout", name),
				Message: "timeout must be positive",
			}
		}
		switch provider.Type {
		case "", "openai", "anthropic", "gemini":
		default:
			return &ValidationError{
				Field:   fmt.Sprintf("providers.%s.type", name),
				Message: fmt.Sprintf("unsupported type %q (supported: openai, anthropic, gemini)", provider.Type),
			}
		}
	}

	switch cfg.Ledger.Backend {
	case "memory", "sqlite":
	default:
		return &ValidationError{
			Field:   "ledger.backend",
			Message: fmt.Sprintf("unsupported backend %q (supported: memory, sqlite)", cfg.Ledger.Backend),
		}
	}
	if cfg.Ledger.Backend == "sqlite" && cfg.Ledger.SQLitePath == "" {
		return &ValidationError{Field: "ledger.sqlite_path", Message: "path is required for sqlite backend"}
	}

	switch cfg.CacheStats.Backend {
	case "memory", "sqlite":
	default:
		return &ValidationError{
			Field:   "cache_stats.backend",
			Message: fmt.Sprintf("unsupported backend %q (supported: memory, sqlite)", cfg.CacheStats.Backend),
		}
	}

	if cfg.Cache.TTL <= 0 {
		return &ValidationError{Field: "cache.ttl", Message: "ttl must be positive"}
	}
	if cfg.Cache.MaxEntries <= 0 {
		return &ValidationError{Field: "cache.max_entries", Message: "max_entries must be positive"}
	}

	switch strings.ToLower(cfg.Telemetry.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level),
		}
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format),
		}
	}

	return nil
}
