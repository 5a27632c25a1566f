package costs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"roundtable-hq/roundtable/pkg/providers"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  gpt-4o:\n    prompt: 0.001\n    completion: 0.002\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCalculator(table)

	w, err := NewWatcher(path, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	if err := os.WriteFile(path, []byte("openai:\n  gpt-4o:\n    prompt: 0.5\n    completion: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	usage := providers.TokenUsage{PromptTokens: 1000}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.Calculate("openai", "gpt-4o", usage).PromptCost == 0.5 {
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned %v", err)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("pricing change was not picked up")
}

func TestWatcherMissingFile(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/pricing.yaml", NewCalculator(nil), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
