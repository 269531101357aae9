package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ratesFile is the on-disk shape for a user pricing override, following the
// teacher's PricingConfig YAML layout.
type ratesFile struct {
	Version string           `yaml:"version"`
	Models  []modelRateEntry `yaml:"models"`
}

type modelRateEntry struct {
	Model           string `yaml:"model"`
	InputTokenCost  string `yaml:"input_token_cost"`
	OutputTokenCost string `yaml:"output_token_cost"`
}

// LoadRatesFile loads a user rate-override YAML file and merges it over the
// built-in defaults, user entries taking precedence for matching model
// keys. A missing file is not an error — the built-in defaults are
// returned unchanged, matching the teacher's LoadUserConfig/os.IsNotExist
// handling in pkg/llm/pricing/pricing.go.
func LoadRatesFile(path string) (PaidPlanConfig, error) {
	builtIn := DefaultPaidPlanConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return builtIn, nil
		}
		return PaidPlanConfig{}, fmt.Errorf("failed to read pricing file %s: %w", path, err)
	}

	var file ratesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PaidPlanConfig{}, fmt.Errorf("failed to parse pricing file %s: %w", path, err)
	}

	merged := PaidPlanConfig{
		ModelRates:   make(map[string]PricingRates, len(builtIn.ModelRates)),
		DefaultRates: builtIn.DefaultRates,
	}
	for model, rates := range builtIn.ModelRates {
		merged.ModelRates[model] = rates
	}
	for _, entry := range file.Models {
		rates, err := NewPricingRatesFromStrings(entry.InputTokenCost, entry.OutputTokenCost)
		if err != nil {
			return PaidPlanConfig{}, fmt.Errorf("invalid rates for model %q in %s: %w", entry.Model, path, err)
		}
		merged.ModelRates[entry.Model] = rates
	}
	return merged, nil
}
