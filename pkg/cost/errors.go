package cost

import "fmt"

// InvalidInput is returned when a cost-model value fails its own
// constructor validation (IssueId, ApiCall, PricingRates, token counts).
type InvalidInput struct {
	Field   string
	Message string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// TooManySessions is returned by start_session when the tracker is at
// MAX_COST_SESSIONS capacity and no completed session is available to evict.
type TooManySessions struct {
	Limit int
}

func (e *TooManySessions) Error() string {
	return fmt.Sprintf("too many cost sessions: limit of %d reached with no completed sessions to evict", e.Limit)
}

// TooManyApiCalls is returned by add_api_call when a session is already at
// MAX_API_CALLS_PER_SESSION.
type TooManyApiCalls struct {
	SessionID CostSessionId
	Limit     int
}

func (e *TooManyApiCalls) Error() string {
	return fmt.Sprintf("session %s already has the maximum of %d api calls", e.SessionID, e.Limit)
}

// SessionNotFound is returned when a session id is unknown to the tracker.
type SessionNotFound struct {
	SessionID CostSessionId
}

func (e *SessionNotFound) Error() string {
	return fmt.Sprintf("cost session not found: %s", e.SessionID)
}

// SessionAlreadyCompleted is returned on any mutation attempted against a
// session whose status has already left InProgress.
type SessionAlreadyCompleted struct {
	SessionID CostSessionId
}

func (e *SessionAlreadyCompleted) Error() string {
	return fmt.Sprintf("cost session already completed: %s", e.SessionID)
}

// ApiCallNotFound is returned when a call id is unknown within a session.
type ApiCallNotFound struct {
	SessionID CostSessionId
	CallID    ApiCallId
}

func (e *ApiCallNotFound) Error() string {
	return fmt.Sprintf("api call not found: %s (session %s)", e.CallID, e.SessionID)
}

// ApiCallAlreadyCompleted is returned when complete_api_call is called more
// than once for the same call.
type ApiCallAlreadyCompleted struct {
	SessionID CostSessionId
	CallID    ApiCallId
}

func (e *ApiCallAlreadyCompleted) Error() string {
	return fmt.Sprintf("api call already completed: %s (session %s)", e.CallID, e.SessionID)
}
