package providerfactory

import (
	"fmt"
	"log/slog"
	"sync"

	"roundtable-hq/roundtable/pkg/providers"
)

// Manager holds the set of configured provider adapters and handles
// their lifecycle. It is thread-safe, and its Get method satisfies the
// orchestrator's registry contract.
type Manager struct {
	providers map[string]providers.Provider
	mu        sync.RWMutex
}

// NewManager creates an empty provider manager.
func NewManager() *Manager {
	return &Manager{
		providers: make(map[string]providers.Provider),
	}
}

// AddProvider creates an adapter from the config and registers it.
// An existing provider with the same name is closed and replaced.
func (m *Manager) AddProvider(config providers.ProviderConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.providers[config.Name]; ok {
		slog.Warn("replacing existing provider", "name", config.Name)
		existing.Close()
		delete(m.providers, config.Name)
	}

	provider, err := NewProvider(config)
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", config.Name, err)
	}

	m.providers[config.Name] = provider

	slog.Info("provider added",
		"name", config.Name,
		"type", provider.GetType(),
		"total_providers", len(m.providers),
	)

	return nil
}

// RemoveProvider closes and removes a provider.
func (m *Manager) RemoveProvider(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	provider, ok := m.providers[name]
	if !ok {
		return fmt.Errorf("provider %q not found", name)
	}

	if err := provider.Close(); err != nil {
		slog.Error("error closing provider", "name", name, "error", err)
	}
	delete(m.providers, name)

	return nil
}

// Get returns a provider by name. It implements the orchestrator's
// registry lookup.
func (m *Manager) Get(name string) (providers.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[name]
	return provider, ok
}

// Names returns the names of all registered providers.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names
}

// Close closes all providers. The manager must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.providers, name)
	}
	return firstErr
}
