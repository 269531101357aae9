package costformat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tombee/flowsmith/pkg/cost"
	"github.com/tombee/flowsmith/pkg/pricing"
)

// SummaryStats holds the derived statistics shown under "### Cost Summary".
type SummaryStats struct {
	AverageCostPerCall *decimal.Decimal
	MostExpensiveCall  *decimal.Decimal
	TokenEfficiency    *decimal.Decimal
	SuccessfulCalls    int
	FailedCalls        int
}

// IssueCostData combines a session with its calculated cost and summary
// statistics — the single input format() renders from.
type IssueCostData struct {
	Session      cost.CostSession
	TotalCost    *decimal.Decimal // nil for a Max plan with no estimation rates
	PricingModel pricing.PricingModel
	Stats        SummaryStats
}

// BuildIssueCostData calculates totals and summary statistics for session
// under model. A dollar total is only produced for a Paid plan with a
// calculator available; a Max plan always renders as token usage with no
// cost, regardless of whether estimation rates are configured.
func BuildIssueCostData(session cost.CostSession, model pricing.PricingModel, calc *pricing.Calculator) IssueCostData {
	var totalCost *decimal.Decimal
	var perCallCost map[cost.ApiCallId]decimal.Decimal

	if calc != nil && model.IsPaid() {
		sessionCalc := calc.CalculateSessionCost(session)
		totalCost = &sessionCalc.TotalCost

		perCallCost = make(map[cost.ApiCallId]decimal.Decimal, len(session.ApiCalls))
		for id, call := range session.ApiCalls {
			perCallCost[id] = calc.CalculateCallCost(call).TotalCost
		}
	}

	return IssueCostData{
		Session:      session,
		TotalCost:    totalCost,
		PricingModel: model,
		Stats:        summaryStats(session, totalCost, perCallCost),
	}
}

func summaryStats(session cost.CostSession, totalCost *decimal.Decimal, perCallCost map[cost.ApiCallId]decimal.Decimal) SummaryStats {
	var successful, failed int
	for _, call := range session.ApiCalls {
		if call.Status == cost.ApiCallSuccess {
			successful++
		} else if call.Status != cost.ApiCallInProgress {
			failed++
		}
	}

	stats := SummaryStats{SuccessfulCalls: successful, FailedCalls: failed}

	if totalCost != nil && len(session.ApiCalls) > 0 {
		avg := totalCost.Div(decimal.NewFromInt(int64(len(session.ApiCalls))))
		stats.AverageCostPerCall = &avg
	}

	if len(perCallCost) > 0 {
		var max decimal.Decimal
		first := true
		for _, c := range perCallCost {
			if first || c.GreaterThan(max) {
				max = c
				first = false
			}
		}
		stats.MostExpensiveCall = &max
	}

	var totalInput, totalOutput uint64
	for _, call := range session.ApiCalls {
		totalInput += uint64(call.InputTokens)
		totalOutput += uint64(call.OutputTokens)
	}
	if totalInput > 0 {
		efficiency := decimal.NewFromInt(int64(totalOutput)).Div(decimal.NewFromInt(int64(totalInput)))
		stats.TokenEfficiency = &efficiency
	}

	return stats
}

// Formatter renders IssueCostData as Markdown per Config.
type Formatter struct {
	config Config
}

// NewFormatter builds a Formatter bound to config.
func NewFormatter(config Config) *Formatter {
	return &Formatter{config: config}
}

// Format renders data as a Markdown "## Cost Analysis" section, or the
// empty string if formatting is disabled or there are no calls (spec.md §7).
func (f *Formatter) Format(data IssueCostData) string {
	if !f.config.Enabled || len(data.Session.ApiCalls) == 0 {
		return ""
	}

	sections := []string{"## Cost Analysis", "", f.formatSummary(data)}

	if f.config.ShowBreakdownTable && (f.config.DetailLevel == Full || f.config.DetailLevel == Breakdown) {
		sections = append(sections, "", f.formatBreakdown(data.Session))
	}
	if f.config.DetailLevel == Full || f.config.DetailLevel == Breakdown {
		sections = append(sections, "", f.formatStatistics(data.Stats))
	}

	return strings.Join(sections, "\n")
}

func (f *Formatter) formatSummary(data IssueCostData) string {
	var lines []string

	if data.TotalCost != nil {
		lines = append(lines, fmt.Sprintf("**Total Cost**: $%s", f.formatCurrency(*data.TotalCost)))
	} else {
		lines = append(lines, fmt.Sprintf("**Total Cost**: Unlimited Plan - %s tokens used", f.formatNumber(totalTokens(data.Session))))
	}

	lines = append(lines, fmt.Sprintf("**Total API Calls**: %d", len(data.Session.ApiCalls)))
	lines = append(lines, fmt.Sprintf("**Total Input Tokens**: %s", f.formatNumber(totalInputTokens(data.Session))))
	lines = append(lines, fmt.Sprintf("**Total Output Tokens**: %s", f.formatNumber(totalOutputTokens(data.Session))))

	if data.Session.TotalDuration != nil {
		lines = append(lines, fmt.Sprintf("**Session Duration**: %s", f.formatDuration(*data.Session.TotalDuration)))
	}
	if data.Session.CompletedAt != nil {
		lines = append(lines, fmt.Sprintf("**Completed**: %s", f.formatTimestamp(*data.Session.CompletedAt)))
	}

	return strings.Join(lines, "\n")
}

func (f *Formatter) formatBreakdown(session cost.CostSession) string {
	lines := []string{
		"### API Call Breakdown",
		"",
		"| Timestamp | Endpoint | Input Tokens | Output Tokens | Duration | Status |",
		"|-----------|----------|--------------|---------------|----------|--------|",
	}

	calls := make([]cost.ApiCall, 0, len(session.ApiCalls))
	for _, call := range session.ApiCalls {
		calls = append(calls, call)
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].StartedAt.Before(calls[j].StartedAt) })

	for _, call := range calls {
		duration := "-"
		if call.Duration != nil {
			duration = f.formatDuration(*call.Duration)
		}
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
			f.formatTimestamp(call.StartedAt),
			f.truncateEndpoint(call.Endpoint),
			f.formatNumber(uint64(call.InputTokens)),
			f.formatNumber(uint64(call.OutputTokens)),
			duration,
			statusGlyph(call.Status),
		))
	}

	return strings.Join(lines, "\n")
}

func (f *Formatter) formatStatistics(stats SummaryStats) string {
	lines := []string{"### Cost Summary"}

	if stats.AverageCostPerCall != nil {
		lines = append(lines, fmt.Sprintf("- **Average cost per call**: $%s", f.formatCurrency(*stats.AverageCostPerCall)))
	}
	if stats.MostExpensiveCall != nil {
		lines = append(lines, fmt.Sprintf("- **Most expensive call**: $%s", f.formatCurrency(*stats.MostExpensiveCall)))
	}
	if stats.TokenEfficiency != nil {
		lines = append(lines, fmt.Sprintf("- **Token efficiency**: %s (output/input ratio)", stats.TokenEfficiency.Round(2).String()))
	}

	total := stats.SuccessfulCalls + stats.FailedCalls
	if total > 0 {
		successRate := float64(stats.SuccessfulCalls) / float64(total) * 100
		lines = append(lines, fmt.Sprintf("- **Success rate**: %.1f%% (%d successful, %d failed)", successRate, stats.SuccessfulCalls, stats.FailedCalls))
	}

	return strings.Join(lines, "\n")
}

func (f *Formatter) formatCurrency(amount decimal.Decimal) string {
	return amount.StringFixed(int32(f.config.CurrencyPrecision))
}

// formatNumber groups digits by 3 from the right using the configured
// separator, mirroring the original implementation's remainder-of-3 loop.
func (f *Formatter) formatNumber(number uint64) string {
	digits := fmt.Sprintf("%d", number)
	var out strings.Builder
	n := len(digits)
	for i, ch := range digits {
		remaining := n - i
		if i > 0 && remaining%3 == 0 {
			out.WriteString(f.config.ThousandsSeparator)
		}
		out.WriteRune(ch)
	}
	return out.String()
}

func (f *Formatter) formatDuration(d time.Duration) string {
	totalSecs := int64(d.Seconds())
	minutes := totalSecs / 60
	seconds := totalSecs % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func (f *Formatter) formatTimestamp(t time.Time) string {
	return t.UTC().Format(f.config.DateFormat)
}

// truncateEndpoint truncates endpoint to max_endpoint_display_length-3
// characters, suffixed with "...", when it exceeds the configured limit.
func (f *Formatter) truncateEndpoint(endpoint string) string {
	maxLen := f.config.MaxEndpointDisplayLength
	if len(endpoint) <= maxLen {
		return endpoint
	}
	return endpoint[:maxLen-3] + "..."
}

func statusGlyph(status cost.ApiCallStatus) string {
	switch status {
	case cost.ApiCallSuccess:
		return "✓"
	case cost.ApiCallFailed:
		return "✗"
	case cost.ApiCallTimeout:
		return "⏱"
	case cost.ApiCallCancelled:
		return "⚠"
	default:
		return "⋯"
	}
}

func totalTokens(session cost.CostSession) uint64 {
	return totalInputTokens(session) + totalOutputTokens(session)
}

func totalInputTokens(session cost.CostSession) uint64 {
	var total uint64
	for _, call := range session.ApiCalls {
		total += uint64(call.InputTokens)
	}
	return total
}

func totalOutputTokens(session cost.CostSession) uint64 {
	var total uint64
	for _, call := range session.ApiCalls {
		total += uint64(call.OutputTokens)
	}
	return total
}
