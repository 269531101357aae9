// Package pricing implements the cost calculator (spec.md §4.4): decimal
// per-token pricing rates, the Paid/Max pricing model, and the model-name
// matching algorithm used to resolve a call's rates.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// maxReasonableRate caps a single per-token rate at $1.00, guarding against
// a misconfigured rate that is off by orders of magnitude.
var maxReasonableRate = decimal.NewFromInt(1)

// maxDecimalPlaces is the finest precision a rate may carry.
const maxDecimalPlaces = 10

// PricingRates holds the per-token cost for one model, in USD, using
// decimal (not binary floating point) arithmetic per spec.md §4.4.
type PricingRates struct {
	InputTokenCost  decimal.Decimal
	OutputTokenCost decimal.Decimal
}

// NewPricingRates validates and constructs a PricingRates pair, enforcing
// spec.md §3/§8 invariant 5: both costs are non-negative, at most $1 per
// token, at most 10 decimal places, and — when both are nonzero — their
// ratio (output/input) lies in [1/100, 1000].
func NewPricingRates(inputTokenCost, outputTokenCost decimal.Decimal) (PricingRates, error) {
	if inputTokenCost.IsNegative() {
		return PricingRates{}, &InvalidRate{Message: "input token cost cannot be negative"}
	}
	if outputTokenCost.IsNegative() {
		return PricingRates{}, &InvalidRate{Message: "output token cost cannot be negative"}
	}
	if inputTokenCost.GreaterThan(maxReasonableRate) {
		return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("input token cost %s exceeds maximum of %s", inputTokenCost, maxReasonableRate)}
	}
	if outputTokenCost.GreaterThan(maxReasonableRate) {
		return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("output token cost %s exceeds maximum of %s", outputTokenCost, maxReasonableRate)}
	}
	if decimalPlaces(inputTokenCost) > maxDecimalPlaces {
		return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("input token cost has more than %d decimal places", maxDecimalPlaces)}
	}
	if decimalPlaces(outputTokenCost) > maxDecimalPlaces {
		return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("output token cost has more than %d decimal places", maxDecimalPlaces)}
	}

	if inputTokenCost.IsPositive() && outputTokenCost.IsPositive() {
		ratio := outputTokenCost.Div(inputTokenCost)
		if ratio.LessThan(decimal.NewFromFloat(0.01)) {
			return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("unusual pricing: input cost %s is much higher than output cost %s (ratio %s)", inputTokenCost, outputTokenCost, ratio)}
		}
		if ratio.GreaterThan(decimal.NewFromInt(1000)) {
			return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("unusual pricing: output cost %s is much higher than input cost %s (ratio %s)", outputTokenCost, inputTokenCost, ratio)}
		}
	}

	return PricingRates{InputTokenCost: inputTokenCost, OutputTokenCost: outputTokenCost}, nil
}

// NewPricingRatesFromStrings parses decimal strings before validating them.
func NewPricingRatesFromStrings(inputTokenCost, outputTokenCost string) (PricingRates, error) {
	in, err := decimal.NewFromString(inputTokenCost)
	if err != nil {
		return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("invalid input token cost %q: %v", inputTokenCost, err)}
	}
	out, err := decimal.NewFromString(outputTokenCost)
	if err != nil {
		return PricingRates{}, &InvalidRate{Message: fmt.Sprintf("invalid output token cost %q: %v", outputTokenCost, err)}
	}
	return NewPricingRates(in, out)
}

func decimalPlaces(d decimal.Decimal) int32 {
	exp := d.Exponent()
	if exp >= 0 {
		return 0
	}
	return -exp
}

// InvalidRate is returned when a PricingRates pair fails validation.
type InvalidRate struct {
	Message string
}

func (e *InvalidRate) Error() string { return "invalid pricing rate: " + e.Message }
