package pricing

import "encoding/json"

// PaidPlanConfig holds per-model rates plus a fallback for unknown models.
type PaidPlanConfig struct {
	ModelRates   map[string]PricingRates
	DefaultRates PricingRates
}

// MaxPlanConfig describes a track-only (unlimited) plan. EstimatedRates is
// nil when the plan reports zero cost for every call; when set, calls are
// priced against it with is_estimated = true.
type MaxPlanConfig struct {
	TrackTokens    bool
	EstimatedRates *PaidPlanConfig
}

// modelKind tags which arm of the PricingModel union is populated.
type modelKind string

const (
	modelKindPaid modelKind = "Paid"
	modelKindMax  modelKind = "Max"
)

// PricingModel is the Paid | Max tagged union from spec.md §3. Exactly one
// of Paid or Max is populated, selected by Kind.
type PricingModel struct {
	kind modelKind
	paid *PaidPlanConfig
	max  *MaxPlanConfig
}

// NewPaidPricingModel builds a Paid-plan model.
func NewPaidPricingModel(config PaidPlanConfig) PricingModel {
	return PricingModel{kind: modelKindPaid, paid: &config}
}

// NewMaxPricingModel builds a Max-plan (track-only) model.
func NewMaxPricingModel(trackTokens bool, estimatedRates *PaidPlanConfig) PricingModel {
	return PricingModel{kind: modelKindMax, max: &MaxPlanConfig{TrackTokens: trackTokens, EstimatedRates: estimatedRates}}
}

// IsPaid reports whether the model is the Paid arm.
func (m PricingModel) IsPaid() bool { return m.kind == modelKindPaid }

// IsMax reports whether the model is the Max arm.
func (m PricingModel) IsMax() bool { return m.kind == modelKindMax }

// Paid returns the Paid-plan config, or nil if this is a Max model.
func (m PricingModel) Paid() *PaidPlanConfig { return m.paid }

// Max returns the Max-plan config, or nil if this is a Paid model.
func (m PricingModel) Max() *MaxPlanConfig { return m.max }

// MarshalJSON serializes the union with tags "Paid" and "Max" as required
// by spec.md §6 ("PricingModel serializes as a tagged union with tags Paid
// and Max").
func (m PricingModel) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case modelKindPaid:
		return json.Marshal(struct {
			Paid PaidPlanConfig `json:"Paid"`
		}{Paid: *m.paid})
	case modelKindMax:
		return json.Marshal(struct {
			Max MaxPlanConfig `json:"Max"`
		}{Max: *m.max})
	default:
		return json.Marshal(struct{}{})
	}
}
