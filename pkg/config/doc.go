// Package config defines the engine's YAML configuration: server,
// provider adapters, pricing table, cost ledger, snapshot cache, cache
// event storage, and telemetry. Loading applies defaults, expands
// ${ENV_VAR} references in API keys, supports ROUNDTABLE_* environment
// overrides, and validates the result.
package config
