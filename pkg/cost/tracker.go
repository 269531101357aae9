package cost

import (
	"sync"
	"time"
)

// MaxCostSessions bounds the number of sessions a CostTracker retains
// (spec.md §3 MAX_COST_SESSIONS). Once reached, starting a new session
// evicts the oldest completed session first; if none is completed,
// start_session fails with TooManySessions.
const MaxCostSessions = 1000

// DefaultMaxApiCallsPerSession bounds per-session call growth absent an
// explicit override via WithMaxApiCallsPerSession.
const DefaultMaxApiCallsPerSession = 10000

// CostTracker is the sole mutator of cost state during a run. Per spec.md
// §4.3 it is single-owner: callers are expected to serialize access
// themselves, but the tracker also guards its own map with a mutex so a
// misbehaving embedder fails safely rather than racing.
type CostTracker struct {
	mu sync.Mutex

	sessions map[CostSessionId]*CostSession
	// order tracks session ids in creation order. ULIDs sort chronologically,
	// so the front of this slice is always the oldest session, letting
	// eviction scan front-to-back for the oldest completed one.
	order []CostSessionId

	maxSessions           int
	maxApiCallsPerSession int
	sessionTTL            time.Duration
}

// TrackerOption configures a CostTracker at construction time.
type TrackerOption func(*CostTracker)

// WithMaxApiCallsPerSession overrides DefaultMaxApiCallsPerSession.
func WithMaxApiCallsPerSession(max int) TrackerOption {
	return func(t *CostTracker) { t.maxApiCallsPerSession = max }
}

// WithSessionTTL sets the age after which CleanupOldSessions drops a
// completed session. Zero (the default) means sessions are never aged out
// by TTL and only capacity-based FIFO eviction applies.
func WithSessionTTL(ttl time.Duration) TrackerOption {
	return func(t *CostTracker) { t.sessionTTL = ttl }
}

// NewCostTracker creates an empty tracker.
func NewCostTracker(opts ...TrackerOption) *CostTracker {
	t := &CostTracker{
		sessions:              make(map[CostSessionId]*CostSession),
		maxSessions:           MaxCostSessions,
		maxApiCallsPerSession: DefaultMaxApiCallsPerSession,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSession creates a new InProgress session for issueID, evicting the
// oldest completed session first if the tracker is at capacity.
func (t *CostTracker) StartSession(issueID IssueId) (CostSessionId, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.sessions) >= t.maxSessions {
		if !t.evictOldestCompletedLocked() {
			return "", &TooManySessions{Limit: t.maxSessions}
		}
	}

	id := NewCostSessionId()
	t.sessions[id] = &CostSession{
		ID:        id,
		IssueID:   issueID,
		StartedAt: time.Now(),
		Status:    SessionInProgress,
		ApiCalls:  make(map[ApiCallId]ApiCall),
	}
	t.order = append(t.order, id)
	return id, nil
}

// evictOldestCompletedLocked removes the oldest non-InProgress session, if
// any exists. Caller must hold t.mu.
func (t *CostTracker) evictOldestCompletedLocked() bool {
	for i, id := range t.order {
		if s, ok := t.sessions[id]; ok && s.Status != SessionInProgress {
			delete(t.sessions, id)
			t.order = append(t.order[:i], t.order[i+1:]...)
			return true
		}
	}
	return false
}

// AddApiCall creates a new InProgress call within sessionID.
func (t *CostTracker) AddApiCall(sessionID CostSessionId, endpoint, model string) (ApiCallId, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[sessionID]
	if !ok {
		return "", &SessionNotFound{SessionID: sessionID}
	}
	if session.Status != SessionInProgress {
		return "", &SessionAlreadyCompleted{SessionID: sessionID}
	}
	if len(session.ApiCalls) >= t.maxApiCallsPerSession {
		return "", &TooManyApiCalls{SessionID: sessionID, Limit: t.maxApiCallsPerSession}
	}

	call, err := newApiCall(endpoint, model, time.Now())
	if err != nil {
		return "", err
	}
	session.ApiCalls[call.ID] = *call
	return call.ID, nil
}

// CompleteApiCall transitions callID within sessionID to a terminal status,
// recording token counts and optional error message. A call may be
// completed exactly once.
func (t *CostTracker) CompleteApiCall(sessionID CostSessionId, callID ApiCallId, inputTokens, outputTokens uint32, status ApiCallStatus, errorMessage *string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[sessionID]
	if !ok {
		return &SessionNotFound{SessionID: sessionID}
	}

	call, ok := session.ApiCalls[callID]
	if !ok {
		return &ApiCallNotFound{SessionID: sessionID, CallID: callID}
	}
	if call.Status != ApiCallInProgress {
		return &ApiCallAlreadyCompleted{SessionID: sessionID, CallID: callID}
	}
	if err := validateTokenCounts(inputTokens, outputTokens); err != nil {
		return err
	}

	now := time.Now()
	duration := now.Sub(call.StartedAt)
	call.CompletedAt = &now
	call.Duration = &duration
	call.InputTokens = inputTokens
	call.OutputTokens = outputTokens
	call.Status = status
	call.ErrorMessage = errorMessage

	session.ApiCalls[callID] = call
	return nil
}

// CompleteSession freezes sessionID, deriving completed_at and
// total_duration. A session may be completed exactly once.
func (t *CostTracker) CompleteSession(sessionID CostSessionId, status CostSessionStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[sessionID]
	if !ok {
		return &SessionNotFound{SessionID: sessionID}
	}
	if session.Status != SessionInProgress {
		return &SessionAlreadyCompleted{SessionID: sessionID}
	}

	now := time.Now()
	duration := now.Sub(session.StartedAt)
	session.CompletedAt = &now
	session.TotalDuration = &duration
	session.Status = status
	return nil
}

// GetSession returns a read-only copy of sessionID's current state.
func (t *CostTracker) GetSession(sessionID CostSessionId) (CostSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[sessionID]
	if !ok {
		return CostSession{}, &SessionNotFound{SessionID: sessionID}
	}
	return copySession(session), nil
}

// CleanupOldSessions drops completed sessions older than the configured
// TTL and reports how many were removed. Safe to call often; a zero TTL
// (the default) makes this a no-op, matching spec.md §4.3's "not aged in
// test" default.
func (t *CostTracker) CleanupOldSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessionTTL <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-t.sessionTTL)
	removed := 0
	kept := t.order[:0:0]
	for _, id := range t.order {
		session := t.sessions[id]
		if session.Status != SessionInProgress && session.CompletedAt != nil && session.CompletedAt.Before(cutoff) {
			delete(t.sessions, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return removed
}

// copySession deep-copies a session's calls so callers cannot mutate
// tracker-owned state through the returned value.
func copySession(s *CostSession) CostSession {
	out := *s
	out.ApiCalls = make(map[ApiCallId]ApiCall, len(s.ApiCalls))
	for id, call := range s.ApiCalls {
		out.ApiCalls[id] = call
	}
	return out
}
