package pricing

import "github.com/shopspring/decimal"

// Default per-token rates, in USD, as a single source of truth (mirrors the
// original implementation's default_rates module).
var (
	sonnetInputRate  = decimal.NewFromFloat(0.000015)
	sonnetOutputRate = decimal.NewFromFloat(0.000075)
	opusInputRate    = decimal.NewFromFloat(0.000075)
	opusOutputRate   = decimal.NewFromFloat(0.000375)
	haikuInputRate   = decimal.NewFromFloat(0.0000025)
	haikuOutputRate  = decimal.NewFromFloat(0.0000125)
)

func mustRates(input, output decimal.Decimal) PricingRates {
	rates, err := NewPricingRates(input, output)
	if err != nil {
		panic(err)
	}
	return rates
}

// SonnetDefaultRates returns the built-in Sonnet pricing.
func SonnetDefaultRates() PricingRates { return mustRates(sonnetInputRate, sonnetOutputRate) }

// OpusDefaultRates returns the built-in Opus pricing.
func OpusDefaultRates() PricingRates { return mustRates(opusInputRate, opusOutputRate) }

// HaikuDefaultRates returns the built-in Haiku pricing.
func HaikuDefaultRates() PricingRates { return mustRates(haikuInputRate, haikuOutputRate) }

// DefaultPaidPlanConfig returns the built-in per-model rate table, keyed on
// the model-family prefixes shipped with this tool, falling back to Sonnet
// pricing for anything unrecognized.
func DefaultPaidPlanConfig() PaidPlanConfig {
	sonnet := SonnetDefaultRates()
	return PaidPlanConfig{
		ModelRates: map[string]PricingRates{
			"claude-3-sonnet":   sonnet,
			"claude-3-5-sonnet": sonnet,
			"claude-sonnet":     sonnet,
			"claude-3-opus":     OpusDefaultRates(),
			"claude-opus":       OpusDefaultRates(),
			"claude-3-haiku":    HaikuDefaultRates(),
			"claude-haiku":      HaikuDefaultRates(),
		},
		DefaultRates: sonnet,
	}
}

// DefaultPaidPricingModel returns a Paid PricingModel seeded with the
// built-in rate table.
func DefaultPaidPricingModel() PricingModel {
	return NewPaidPricingModel(DefaultPaidPlanConfig())
}
