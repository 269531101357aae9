package costformat

import (
	"strings"
	"testing"
	"time"

	"github.com/tombee/flowsmith/pkg/cost"
	"github.com/tombee/flowsmith/pkg/pricing"
)

func sessionWithTwoSonnetCalls() cost.CostSession {
	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	completed := start.Add(90 * time.Second)
	duration := completed.Sub(start)
	d1 := 45 * time.Second
	d2 := 45 * time.Second

	return cost.CostSession{
		ID:            cost.NewCostSessionId(),
		StartedAt:     start,
		CompletedAt:   &completed,
		TotalDuration: &duration,
		Status:        cost.SessionCompleted,
		ApiCalls: map[cost.ApiCallId]cost.ApiCall{
			"1": {
				ID: "1", Endpoint: "/v1/messages", Model: "claude-3-5-sonnet",
				StartedAt: start, CompletedAt: &[]time.Time{start.Add(d1)}[0], Duration: &d1,
				InputTokens: 1000, OutputTokens: 500, Status: cost.ApiCallSuccess,
			},
			"2": {
				ID: "2", Endpoint: "/v1/messages", Model: "claude-3-5-sonnet",
				StartedAt: start.Add(d1), CompletedAt: &[]time.Time{completed}[0], Duration: &d2,
				InputTokens: 800, OutputTokens: 300, Status: cost.ApiCallSuccess,
			},
		},
	}
}

func TestFormatter_FullDetail_MatchesScenarioS5(t *testing.T) {
	session := sessionWithTwoSonnetCalls()
	model := pricing.DefaultPaidPricingModel()
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	out := NewFormatter(DefaultConfig()).Format(data)

	if !strings.Contains(out, "## Cost Analysis") {
		t.Fatalf("expected header, got:\n%s", out)
	}
	if !strings.Contains(out, "**Total Cost**: $0.09") {
		t.Fatalf("expected rounded total cost at precision 2, got:\n%s", out)
	}
	if !strings.Contains(out, "**Total API Calls**: 2") {
		t.Fatalf("expected call count line, got:\n%s", out)
	}
	if !strings.Contains(out, "**Total Input Tokens**: 1,800") {
		t.Fatalf("expected grouped input token total, got:\n%s", out)
	}
	if !strings.Contains(out, "**Total Output Tokens**: 800") {
		t.Fatalf("expected output token total, got:\n%s", out)
	}
	if !strings.Contains(out, "### API Call Breakdown") {
		t.Fatalf("expected breakdown table, got:\n%s", out)
	}
	if !strings.Contains(out, "### Cost Summary") {
		t.Fatalf("expected cost summary, got:\n%s", out)
	}
	if !strings.Contains(out, "Success rate") {
		t.Fatalf("expected success rate line, got:\n%s", out)
	}
}

func TestFormatter_SummaryOnly_OmitsBreakdownAndStats(t *testing.T) {
	session := sessionWithTwoSonnetCalls()
	model := pricing.DefaultPaidPricingModel()
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	out := NewFormatter(SummaryOnly()).Format(data)

	if strings.Contains(out, "### API Call Breakdown") {
		t.Fatalf("summary config should omit the breakdown table, got:\n%s", out)
	}
	if strings.Contains(out, "### Cost Summary") {
		t.Fatalf("summary config should omit cost statistics, got:\n%s", out)
	}
	if !strings.Contains(out, "**Total Cost**") {
		t.Fatalf("summary config should still show totals, got:\n%s", out)
	}
}

func TestFormatter_Disabled_ReturnsEmptyString(t *testing.T) {
	session := sessionWithTwoSonnetCalls()
	model := pricing.DefaultPaidPricingModel()
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	config := DefaultConfig()
	config.Enabled = false

	if out := NewFormatter(config).Format(data); out != "" {
		t.Fatalf("expected empty output when disabled, got:\n%s", out)
	}
}

func TestFormatter_NoApiCalls_ReturnsEmptyString(t *testing.T) {
	session := cost.CostSession{ID: cost.NewCostSessionId(), ApiCalls: map[cost.ApiCallId]cost.ApiCall{}}
	model := pricing.DefaultPaidPricingModel()
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	if out := NewFormatter(DefaultConfig()).Format(data); out != "" {
		t.Fatalf("expected empty output for a session with no calls, got:\n%s", out)
	}
}

func TestFormatter_MaxPlanNoEstimation_ShowsUnlimitedPlanLine(t *testing.T) {
	session := sessionWithTwoSonnetCalls()
	model := pricing.NewMaxPricingModel(true, nil)
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	out := NewFormatter(DefaultConfig()).Format(data)

	if !strings.Contains(out, "Unlimited Plan - 2,600 tokens used") {
		t.Fatalf("expected unlimited-plan totals line, got:\n%s", out)
	}
}

func TestFormatter_Idempotent(t *testing.T) {
	session := sessionWithTwoSonnetCalls()
	model := pricing.DefaultPaidPricingModel()
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	f := NewFormatter(DefaultConfig())
	first := f.Format(data)
	second := f.Format(BuildIssueCostData(session, model, calc))

	if first != second {
		t.Fatalf("expected formatting to be idempotent:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestFormatter_EndpointTruncation(t *testing.T) {
	f := NewFormatter(DefaultConfig())
	long := "/v1/messages/some/very/long/endpoint/path/that/exceeds/the/limit"
	truncated := f.truncateEndpoint(long)

	if len(truncated) != DefaultConfig().MaxEndpointDisplayLength {
		t.Fatalf("expected truncated length %d, got %d (%q)", DefaultConfig().MaxEndpointDisplayLength, len(truncated), truncated)
	}
	if !strings.HasSuffix(truncated, "...") {
		t.Fatalf("expected truncated endpoint to end with ellipsis, got %q", truncated)
	}

	short := "/v1/messages"
	if f.truncateEndpoint(short) != short {
		t.Fatalf("expected short endpoint to pass through unchanged, got %q", f.truncateEndpoint(short))
	}
}

func TestFormatter_ThousandsSeparator_PerLocale(t *testing.T) {
	f := NewFormatter(ForLocale("de_DE"))
	if got := f.formatNumber(1234567); got != "1.234.567" {
		t.Fatalf("expected de_DE grouping with dots, got %q", got)
	}

	fFR := NewFormatter(ForLocale("fr_FR"))
	if got := fFR.formatNumber(1234567); got != "1 234 567" {
		t.Fatalf("expected fr_FR grouping with spaces, got %q", got)
	}
}

func TestFormatter_FormatDuration(t *testing.T) {
	f := NewFormatter(DefaultConfig())
	if got := f.formatDuration(45 * time.Second); got != "45s" {
		t.Fatalf("expected '45s', got %q", got)
	}
	if got := f.formatDuration(90 * time.Second); got != "1m 30s" {
		t.Fatalf("expected '1m 30s', got %q", got)
	}
}

func TestFormatter_BreakdownTable_SortedByStartTime(t *testing.T) {
	session := sessionWithTwoSonnetCalls()
	model := pricing.DefaultPaidPricingModel()
	calc := pricing.NewCalculator(model)
	data := BuildIssueCostData(session, model, calc)

	out := NewFormatter(FullBreakdown()).Format(data)
	table := out[strings.Index(out, "### API Call Breakdown"):]
	firstRowIdx := strings.Index(table, "| 1,000 |")
	secondRowIdx := strings.Index(table, "| 800 |")
	if firstRowIdx == -1 || secondRowIdx == -1 || firstRowIdx > secondRowIdx {
		t.Fatalf("expected the earlier call's row before the later call's row, got:\n%s", table)
	}
}
