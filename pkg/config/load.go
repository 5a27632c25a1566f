package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// expands ${ENV_VAR} references in API keys, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	expandSecrets(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention ROUNDTABLE_SECTION_FIELD and always take precedence over
// file-based values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("ROUNDTABLE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("ROUNDTABLE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("ROUNDTABLE_LEDGER_BACKEND"); val != "" {
		cfg.Ledger.Backend = val
	}
	if val := os.Getenv("ROUNDTABLE_LEDGER_SQLITE_PATH"); val != "" {
		cfg.Ledger.SQLitePath = val
	}
	if val := os.Getenv("ROUNDTABLE_PRICING_TABLE_PATH"); val != "" {
		cfg.Pricing.TablePath = val
	}
	if val := os.Getenv("ROUNDTABLE_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("ROUNDTABLE_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}

	// Per-provider API keys: ROUNDTABLE_PROVIDER_<NAME>_API_KEY is handled
	// through ${ENV_VAR} expansion in the config file instead, so the set
	// of provider names stays data-driven.
}

// expandSecrets expands ${ENV_VAR} references in provider API keys.
func expandSecrets(cfg *Config) {
	for name, provider := range cfg.Providers {
		provider.APIKey = os.Expand(provider.APIKey, func(key string) string {
			return os.Getenv(key)
		})
		cfg.Providers[name] = provider
	}
}
