package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tombee/flowsmith/pkg/cost"
)

// CostCalculation is the result of pricing one call or one session.
type CostCalculation struct {
	TotalCost    decimal.Decimal
	InputCost    decimal.Decimal
	OutputCost   decimal.Decimal
	InputTokens  uint32
	OutputTokens uint32
	IsEstimated  bool
}

// Calculator is pure and stateless given its PricingModel (spec.md §4.4).
type Calculator struct {
	model PricingModel
}

// NewCalculator wraps a PricingModel in a Calculator.
func NewCalculator(model PricingModel) *Calculator {
	return &Calculator{model: model}
}

// CalculateCallCost prices a single ApiCall.
func (c *Calculator) CalculateCallCost(call cost.ApiCall) CostCalculation {
	return c.calculateTokensCost(call.InputTokens, call.OutputTokens, call.Model)
}

// CalculateSessionCost sums the cost of every call in session, using
// saturating addition on token totals per spec.md §4.4 so a pathological
// session cannot overflow the aggregate.
func (c *Calculator) CalculateSessionCost(session cost.CostSession) CostCalculation {
	total := CostCalculation{}
	for _, call := range session.ApiCalls {
		calc := c.CalculateCallCost(call)
		total.TotalCost = total.TotalCost.Add(calc.TotalCost)
		total.InputCost = total.InputCost.Add(calc.InputCost)
		total.OutputCost = total.OutputCost.Add(calc.OutputCost)
		total.InputTokens = saturatingAdd(total.InputTokens, calc.InputTokens)
		total.OutputTokens = saturatingAdd(total.OutputTokens, calc.OutputTokens)
		total.IsEstimated = total.IsEstimated || calc.IsEstimated
	}
	return total
}

func saturatingAdd(a, b uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(sum)
}

// GetRatesForModel applies spec.md §4.4's model-matching algorithm: exact
// match, then the Paid config's fallback chain, or nil for a Max plan with
// no estimation rates configured.
func (c *Calculator) GetRatesForModel(model string) *PricingRates {
	switch {
	case c.model.IsPaid():
		rates := ratesForModel(*c.model.Paid(), model)
		return &rates
	case c.model.IsMax():
		if est := c.model.Max().EstimatedRates; est != nil {
			rates := ratesForModel(*est, model)
			return &rates
		}
		return nil
	default:
		return nil
	}
}

func (c *Calculator) calculateTokensCost(inputTokens, outputTokens uint32, model string) CostCalculation {
	switch {
	case c.model.IsPaid():
		rates := ratesForModel(*c.model.Paid(), model)
		return calculateWithRates(inputTokens, outputTokens, rates, false)
	case c.model.IsMax():
		max := c.model.Max()
		if !max.TrackTokens {
			return CostCalculation{}
		}
		if max.EstimatedRates == nil {
			return CostCalculation{InputTokens: inputTokens, OutputTokens: outputTokens}
		}
		rates := ratesForModel(*max.EstimatedRates, model)
		return calculateWithRates(inputTokens, outputTokens, rates, true)
	default:
		return CostCalculation{}
	}
}

func calculateWithRates(inputTokens, outputTokens uint32, rates PricingRates, isEstimated bool) CostCalculation {
	inputCost := decimal.NewFromInt(int64(inputTokens)).Mul(rates.InputTokenCost)
	outputCost := decimal.NewFromInt(int64(outputTokens)).Mul(rates.OutputTokenCost)
	return CostCalculation{
		TotalCost:    inputCost.Add(outputCost),
		InputCost:    inputCost,
		OutputCost:   outputCost,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		IsEstimated:  isEstimated,
	}
}

// ratesForModel resolves rates for model against config: exact match,
// longest matching prefix, family match (hyphen-separated segments), then
// bidirectional longest-common-substring, falling back to DefaultRates.
func ratesForModel(config PaidPlanConfig, model string) PricingRates {
	if rates, ok := config.ModelRates[model]; ok {
		return rates
	}
	if rates, ok := bestModelMatch(config, model); ok {
		return rates
	}
	return config.DefaultRates
}

func bestModelMatch(config PaidPlanConfig, model string) (PricingRates, bool) {
	modelLower := strings.ToLower(model)

	// Strategy 1: longest prefix match.
	type prefixMatch struct {
		key   string
		rates PricingRates
	}
	var prefixMatches []prefixMatch
	for key, rates := range config.ModelRates {
		if strings.HasPrefix(modelLower, strings.ToLower(key)) {
			prefixMatches = append(prefixMatches, prefixMatch{key: key, rates: rates})
		}
	}
	if len(prefixMatches) > 0 {
		sort.Slice(prefixMatches, func(i, j int) bool { return len(prefixMatches[i].key) > len(prefixMatches[j].key) })
		return prefixMatches[0].rates, true
	}

	// Strategy 2: family match — every hyphen-separated segment of the key
	// equals the corresponding segment of the model, in order.
	modelParts := strings.Split(modelLower, "-")
	for key, rates := range config.ModelRates {
		keyParts := strings.Split(strings.ToLower(key), "-")
		if len(keyParts) < 2 || len(modelParts) < len(keyParts) {
			continue
		}
		family := true
		for i, part := range keyParts {
			if part != modelParts[i] {
				family = false
				break
			}
		}
		if family {
			return rates, true
		}
	}

	// Strategy 3: bidirectional substring match, longest match wins.
	bestScore := -1
	var best PricingRates
	found := false
	for key, rates := range config.ModelRates {
		keyLower := strings.ToLower(key)
		var score int
		switch {
		case strings.Contains(modelLower, keyLower):
			score = len(keyLower)
		case strings.Contains(keyLower, modelLower):
			score = len(modelLower)
		default:
			continue
		}
		if score > bestScore {
			bestScore = score
			best = rates
			found = true
		}
	}
	return best, found
}
