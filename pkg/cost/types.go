package cost

import (
	"math"
	"strings"
	"time"
)

// ApiCallStatus is the lifecycle state of a single ApiCall.
type ApiCallStatus string

const (
	ApiCallInProgress ApiCallStatus = "InProgress"
	ApiCallSuccess    ApiCallStatus = "Success"
	ApiCallFailed     ApiCallStatus = "Failed"
	ApiCallTimeout    ApiCallStatus = "Timeout"
	ApiCallCancelled  ApiCallStatus = "Cancelled"
)

// CostSessionStatus is the lifecycle state of a CostSession.
type CostSessionStatus string

const (
	SessionInProgress CostSessionStatus = "InProgress"
	SessionCompleted  CostSessionStatus = "Completed"
	SessionFailed     CostSessionStatus = "Failed"
	SessionCancelled  CostSessionStatus = "Cancelled"
)

// ApiCall records one metered call to a model provider within a CostSession.
// It is created InProgress and admits exactly one completion transition;
// after that it is immutable.
type ApiCall struct {
	ID           ApiCallId
	Endpoint     string
	Model        string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Duration     *time.Duration
	InputTokens  uint32
	OutputTokens uint32
	Status       ApiCallStatus
	ErrorMessage *string
}

// newApiCall constructs an InProgress ApiCall, rejecting an empty endpoint
// or model (spec.md §4.3 "ApiCall::new rejects empty endpoint or model").
func newApiCall(endpoint, model string, startedAt time.Time) (*ApiCall, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, &InvalidInput{Field: "endpoint", Message: "must not be empty"}
	}
	if strings.TrimSpace(model) == "" {
		return nil, &InvalidInput{Field: "model", Message: "must not be empty"}
	}
	return &ApiCall{
		ID:        NewApiCallId(),
		Endpoint:  endpoint,
		Model:     model,
		StartedAt: startedAt,
		Status:    ApiCallInProgress,
	}, nil
}

// maxTokenSum is the threshold (u32::MAX - 1000) that a call's input and
// output token counts may not both exceed at once; either one alone may.
const maxTokenSum = math.MaxUint32 - 1000

// validateTokenCounts enforces spec.md §4.3's token boundary rules:
// each count must be < u32::MAX, the two must not simultaneously exceed
// u32::MAX-1000, and their sum must not overflow u32.
func validateTokenCounts(input, output uint32) error {
	if input == math.MaxUint32 {
		return &InvalidInput{Field: "input_tokens", Message: "must be less than u32::MAX"}
	}
	if output == math.MaxUint32 {
		return &InvalidInput{Field: "output_tokens", Message: "must be less than u32::MAX"}
	}
	if input > maxTokenSum && output > maxTokenSum {
		return &InvalidInput{Field: "input_tokens,output_tokens", Message: "both token counts may not simultaneously exceed u32::MAX - 1000"}
	}
	if uint64(input)+uint64(output) > math.MaxUint32 {
		return &InvalidInput{Field: "input_tokens,output_tokens", Message: "sum of token counts overflows u32"}
	}
	return nil
}

// CostSession groups the ApiCalls metered against a single IssueId.
type CostSession struct {
	ID            CostSessionId
	IssueID       IssueId
	StartedAt     time.Time
	CompletedAt   *time.Time
	TotalDuration *time.Duration
	Status        CostSessionStatus
	ApiCalls      map[ApiCallId]ApiCall
}

// totalTokens sums input and output tokens across all calls in the session.
func (s *CostSession) totalTokens() uint64 {
	var total uint64
	for _, call := range s.ApiCalls {
		total += uint64(call.InputTokens) + uint64(call.OutputTokens)
	}
	return total
}
