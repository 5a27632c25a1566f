package costs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTableOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")

	doc := `
openai:
  gpt-4o:
    prompt: 0.005
    completion: 0.02
custom:
  my-model:
    prompt: 0.1
    completion: 0.2
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}

	// Overridden entry.
	if entry := table.Lookup("openai", "gpt-4o"); entry.Prompt != 0.005 {
		t.Errorf("override not applied: %+v", entry)
	}
	// New provider.
	if entry := table.Lookup("custom", "my-model"); entry.Prompt != 0.1 {
		t.Errorf("new provider missing: %+v", entry)
	}
	// Untouched defaults survive.
	if entry := table.Lookup("anthropic", "claude-3-5-sonnet"); entry.Prompt != 0.003 {
		t.Errorf("default entry lost: %+v", entry)
	}
}

func TestLoadTableErrors(t *testing.T) {
	if _, err := LoadTable("/nonexistent/pricing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("{not yaml"), 0o644)
	if _, err := LoadTable(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestLookupNeverFails(t *testing.T) {
	// Even a table without a default entry prices the call.
	entry := Table{}.Lookup("nobody", "nothing")
	if entry.Prompt <= 0 || entry.Completion <= 0 {
		t.Errorf("empty-table fallback = %+v", entry)
	}
}
