package workflow

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a WorkflowRun (spec.md §3).
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusPaused    RunStatus = "paused"
)

// Reserved context keys the executor writes and reads (spec.md §3).
const (
	CtxSuccess          = "success"
	CtxFailure          = "failure"
	CtxIsError          = "is_error"
	CtxResult           = "result"
	CtxLastActionResult = "last_action_result"
	CtxErrorContext     = "_error_context"
	CtxWorkflowStack    = "_workflow_stack"
	CtxManualApproval   = "manual_approval"
	CtxDeadLetterReason = "dead_letter_reason"
	CtxRetryAttempts    = "retry_attempts"
)

// compensationKeyPrefix prefixes the legacy context-key encoding of a
// recorded compensation target, kept for observability even though the
// authoritative record is WorkflowRun.compensationStack (spec.md §9's
// DESIGN NOTES: "a clean re-implementation should promote it to a
// first-class stack field on WorkflowRun").
const compensationKeyPrefix = "_compensation_for_"

// HistoryEventType enumerates the kinds of events appended to a run's
// history (spec.md §4.1.4).
type HistoryEventType string

const (
	EventStarted            HistoryEventType = "started"
	EventStateTransition    HistoryEventType = "state_transition"
	EventStateExecution     HistoryEventType = "state_execution"
	EventConditionEvaluated HistoryEventType = "condition_evaluated"
	EventCompleted          HistoryEventType = "completed"
	EventFailed             HistoryEventType = "failed"
)

// HistoryEvent is one entry in a run's bounded execution history.
type HistoryEvent struct {
	Type      HistoryEventType
	State     string
	Timestamp time.Time

	// Detail is optional human-readable context (SPEC_FULL.md §12),
	// e.g. "Retry attempt 2 of 3".
	Detail string
}

// compensationEntry is one frame of the compensation LIFO stack.
type compensationEntry struct {
	forState          string
	compensationState string
}

// WorkflowRun is the mutable execution state the Executor drives forward
// (spec.md §3). The executor that started it is the run's sole owner;
// callers must not mutate a running WorkflowRun concurrently.
type WorkflowRun struct {
	RunID        string
	Workflow     Workflow
	CurrentState string
	Status       RunStatus
	Context      map[string]any
	History      []HistoryEvent

	// compensationStack is a first-class LIFO stack of (state,
	// compensation_state) pairs, promoted from the context-key encoding
	// the original implementation used (spec.md §9).
	compensationStack []compensationEntry

	// joinArrivals counts how many fork branches have reached each join
	// state, kept as a record only (nothing reads it); the executor waits on
	// goroutine completion, not on this counter.
	joinArrivals map[string]int

	// incomingTransition is the Transition that moved execution into
	// CurrentState, consulted for its retry_*/dead_letter_state/
	// compensation_state/skip_on_failure metadata (spec.md §4.1.1). Nil at
	// the initial state or just after a fork join or dead-letter jump.
	incomingTransition *Transition

	maxHistorySize int
}

// RunMetrics is a point-in-time snapshot of a run's progress (spec.md §4.1).
type RunMetrics struct {
	Status          RunStatus
	CurrentState    string
	TransitionCount int
	HistorySize     int
}

// Metrics returns a snapshot of the run's current progress.
func (r *WorkflowRun) Metrics() RunMetrics {
	count := 0
	for _, ev := range r.History {
		if ev.Type == EventStateTransition {
			count++
		}
	}
	return RunMetrics{
		Status:          r.Status,
		CurrentState:    r.CurrentState,
		TransitionCount: count,
		HistorySize:     len(r.History),
	}
}

// NewRun creates a fresh WorkflowRun in the Running status, seeded with an
// empty context, positioned at w.InitialState.
func NewRun(w Workflow) *WorkflowRun {
	return &WorkflowRun{
		RunID:          uuid.NewString(),
		Workflow:       w,
		CurrentState:   w.InitialState,
		Status:         StatusRunning,
		Context:        make(map[string]any),
		History:        nil,
		joinArrivals:   make(map[string]int),
		maxHistorySize: DefaultMaxHistorySize,
	}
}

// appendHistory records an event, trimming the oldest entries once the
// bound is exceeded (spec.md §4.1.4, invariant 1 in spec.md §8).
func (r *WorkflowRun) appendHistory(eventType HistoryEventType, state, detail string) {
	r.History = append(r.History, HistoryEvent{
		Type:      eventType,
		State:     state,
		Timestamp: time.Now(),
		Detail:    detail,
	})

	max := r.maxHistorySize
	if max <= 0 {
		max = DefaultMaxHistorySize
	}
	if len(r.History) > max {
		overflow := len(r.History) - max
		r.History = r.History[overflow:]
	}
}

// setLastActionResult writes the reserved success/failure/is_error/result
// keys the executor maintains after every action execution (spec.md §3).
func (r *WorkflowRun) setLastActionResult(success bool, result any, isError bool) {
	r.Context[CtxSuccess] = success
	r.Context[CtxFailure] = !success
	r.Context[CtxIsError] = isError
	r.Context[CtxLastActionResult] = success
	if result != nil {
		r.Context[CtxResult] = result
	}
}

// setErrorContext writes _error_context after an action failure (spec.md §3).
func (r *WorkflowRun) setErrorContext(errMsg, state string, retryAttempts *int) {
	ec := map[string]any{
		"error":     errMsg,
		"state":     state,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if retryAttempts != nil {
		ec["retry_attempts"] = *retryAttempts
	}
	r.Context[CtxErrorContext] = ec
}

// backfillErrorContextRetryAttempts updates a previously recorded
// _error_context with the final retry attempt count once an action
// succeeds after retrying (SPEC_FULL.md §12, grounded on
// original_source's handle_retry_success).
func (r *WorkflowRun) backfillErrorContextRetryAttempts(attempt int) {
	ec, ok := r.Context[CtxErrorContext].(map[string]any)
	if !ok {
		return
	}
	ec["retry_attempts"] = attempt
}

// pushCompensation records a compensation target for forState, to be used
// LIFO if a later unhandled failure occurs (spec.md §4.1.1).
func (r *WorkflowRun) pushCompensation(forState, compensationState string) {
	r.compensationStack = append(r.compensationStack, compensationEntry{
		forState:          forState,
		compensationState: compensationState,
	})
	r.Context[compensationKeyPrefix+forState] = compensationState
}

// popCompensation pops and returns the most recently recorded compensation
// target, or ("", false) if none is recorded.
func (r *WorkflowRun) popCompensation() (string, bool) {
	if len(r.compensationStack) == 0 {
		return "", false
	}
	last := r.compensationStack[len(r.compensationStack)-1]
	r.compensationStack = r.compensationStack[:len(r.compensationStack)-1]
	delete(r.Context, compensationKeyPrefix+last.forState)
	return last.compensationState, true
}

// lastActionResult reads context.last_action_result, defaulting per
// spec.md §4.1's OnSuccess/OnFailure semantics ("default true/false if
// absent") depending on which default the caller needs.
func (r *WorkflowRun) lastActionResult(defaultVal bool) bool {
	v, ok := r.Context[CtxLastActionResult]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// workflowStack reads the _workflow_stack cycle-detection slice.
func (r *WorkflowRun) workflowStack() []string {
	v, ok := r.Context[CtxWorkflowStack]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// DeepCopyContext returns a structural copy of ctx safe for a fork branch
// to mutate without affecting the parent or sibling branches (spec.md
// §4.1.3: "no branch observes another's context mutations before join").
func DeepCopyContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = deepCopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		// Strings, numbers, bools, and nil are immutable in Go's JSON
		// representation, so a shallow copy is a deep copy.
		return val
	}
}
