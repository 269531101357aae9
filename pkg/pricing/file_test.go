package pricing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRatesFile_MissingFileReturnsDefaults(t *testing.T) {
	config, err := LoadRatesFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.DefaultRates.InputTokenCost.Equal(SonnetDefaultRates().InputTokenCost) {
		t.Fatalf("expected built-in defaults, got %+v", config)
	}
}

func TestLoadRatesFile_OverridesMergeOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	contents := `
version: "1"
models:
  - model: custom-model
    input_token_cost: "0.00001"
    output_token_cost: "0.00002"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	config, err := LoadRatesFile(path)
	if err != nil {
		t.Fatalf("LoadRatesFile failed: %v", err)
	}

	custom, ok := config.ModelRates["custom-model"]
	if !ok {
		t.Fatal("expected custom-model rates to be present")
	}
	if custom.InputTokenCost.String() != "0.00001" {
		t.Fatalf("unexpected input cost: %s", custom.InputTokenCost)
	}
	if _, ok := config.ModelRates["claude-3-opus"]; !ok {
		t.Fatal("expected built-in opus rates to survive the merge")
	}
}

func TestLoadRatesFile_InvalidOverrideIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	contents := `
models:
  - model: bad-model
    input_token_cost: "-1"
    output_token_cost: "0.01"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := LoadRatesFile(path); err == nil {
		t.Fatal("expected negative override rate to be rejected")
	}
}
