package providerfactory

import (
	"errors"
	"testing"

	"roundtable-hq/roundtable/pkg/providers"
)

func TestNewProviderTypes(t *testing.T) {
	tests := []struct {
		name     string
		config   providers.ProviderConfig
		wantType string
	}{
		{
			name:     "explicit openai",
			config:   providers.ProviderConfig{Name: "primary", Type: "openai", APIKey: "sk-test"},
			wantType: "openai",
		},
		{
			name:     "explicit anthropic",
			config:   providers.ProviderConfig{Name: "secondary", Type: "anthropic", APIKey: "sk-ant-test"},
			wantType: "anthropic",
		},
		{
			name:     "explicit gemini",
			config:   providers.ProviderConfig{Name: "tertiary", Type: "gemini", APIKey: "test-key"},
			wantType: "gemini",
		},
		{
			name:     "inferred from claude name",
			config:   providers.ProviderConfig{Name: "claude-backend", APIKey: "sk-ant-test"},
			wantType: "anthropic",
		},
		{
			name:     "inferred from google name",
			config:   providers.ProviderConfig{Name: "google-ai", APIKey: "test-key"},
			wantType: "gemini",
		},
		{
			name:     "defaults to openai",
			config:   providers.ProviderConfig{Name: "mystery", APIKey: "sk-test"},
			wantType: "openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			defer provider.Close()

			if provider.GetType() != tt.wantType {
				t.Errorf("GetType() = %q, want %q", provider.GetType(), tt.wantType)
			}
		})
	}
}

func TestNewProviderUnsupportedType(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{Name: "x", Type: "cohere", APIKey: "k"})

	var configErr *providers.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
	if configErr.Field != "type" {
		t.Errorf("Field = %q, want type", configErr.Field)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	defer m.Close()

	configs := []providers.ProviderConfig{
		{Name: "openai", Type: "openai", APIKey: "sk-test"},
		{Name: "anthropic", Type: "anthropic", APIKey: "sk-ant-test"},
	}
	for _, c := range configs {
		if err := m.AddProvider(c); err != nil {
			t.Fatalf("AddProvider(%s) error = %v", c.Name, err)
		}
	}

	if len(m.Names()) != 2 {
		t.Errorf("Names() has %d entries, want 2", len(m.Names()))
	}

	provider, ok := m.Get("anthropic")
	if !ok {
		t.Fatal("Get(anthropic) not found")
	}
	if provider.GetType() != "anthropic" {
		t.Errorf("GetType() = %q, want anthropic", provider.GetType())
	}

	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should report not found")
	}

	if err := m.RemoveProvider("openai"); err != nil {
		t.Fatalf("RemoveProvider() error = %v", err)
	}
	if _, ok := m.Get("openai"); ok {
		t.Error("removed provider still resolvable")
	}

	if err := m.RemoveProvider("openai"); err == nil {
		t.Error("expected error removing an absent provider")
	}
}

func TestManagerReplaceProvider(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.AddProvider(providers.ProviderConfig{Name: "primary", Type: "openai", APIKey: "k1"}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddProvider(providers.ProviderConfig{Name: "primary", Type: "anthropic", APIKey: "k2"}); err != nil {
		t.Fatal(err)
	}

	provider, _ := m.Get("primary")
	if provider.GetType() != "anthropic" {
		t.Errorf("replacement did not take effect: type = %q", provider.GetType())
	}
	if len(m.Names()) != 1 {
		t.Errorf("Names() has %d entries, want 1", len(m.Names()))
	}
}
