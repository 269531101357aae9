package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the executor (spec.md §4.1.2). Callers use
// errors.Is to classify a failed Start/Resume.
var (
	// ErrWorkflowCompleted is returned by Resume when the run has already
	// reached a terminal state.
	ErrWorkflowCompleted = errors.New("workflow: run already completed")

	// ErrManualInterventionRequired is returned when execution reaches a
	// state with metadata["requires_manual_intervention"] == "true" and
	// pauses the run rather than failing it.
	ErrManualInterventionRequired = errors.New("workflow: state requires manual intervention")
)

// StateNotFoundError reports a reference to a state id absent from the
// workflow's States map.
type StateNotFoundError struct {
	StateID string
}

func (e *StateNotFoundError) Error() string {
	return fmt.Sprintf("workflow: state %q not found", e.StateID)
}

// InvalidTransitionError reports that no eligible transition exists out of
// the current state (spec.md §4.1: "a state with no matching transition and
// that is not terminal is an execution error").
type InvalidTransitionError struct {
	StateID string
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("workflow: no valid transition from state %q: %s", e.StateID, e.Reason)
}

// ValidationFailedError wraps the full list of Workflow.Validate() violations.
type ValidationFailedError struct {
	Errors []error
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("workflow: validation failed with %d error(s): %v", len(e.Errors), e.Errors)
}

// TransitionLimitExceededError reports that a run took more transitions
// than Limit without reaching a terminal state (spec.md §4.1.4).
type TransitionLimitExceededError struct {
	Limit int
}

func (e *TransitionLimitExceededError) Error() string {
	return fmt.Sprintf("workflow: exceeded maximum of %d transitions without completing", e.Limit)
}

// ExecutionFailedError wraps an unhandled action or transition failure that
// terminates a run in the Failed status.
type ExecutionFailedError struct {
	StateID string
	Message string
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("workflow: execution failed at state %q: %s", e.StateID, e.Message)
}

// ExpressionError wraps a Custom condition evaluation failure.
type ExpressionError struct {
	Expression string
	Cause      error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("workflow: expression %q failed: %s", e.Expression, e.Cause)
}

func (e *ExpressionError) Unwrap() error { return e.Cause }

// ActionError wraps an error returned from Action.Execute, preserving the
// state id that produced it so callers can correlate it against history.
type ActionError struct {
	StateID string
	Cause   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("workflow: action at state %q failed: %s", e.StateID, e.Cause)
}

func (e *ActionError) Unwrap() error { return e.Cause }

// aborter is implemented by action-layer errors that must bypass retry,
// skip_on_failure, dead_letter_state, and compensation entirely: the run
// fails immediately and the error propagates to the caller (spec.md
// §4.1.1 "An AbortError from the action layer bypasses all of the above").
// Declared here rather than as a concrete type so pkg/workflow never
// imports pkg/action (spec.md §4.2's AbortError implements this).
type aborter interface {
	AbortsWorkflow() bool
}

// isAbort reports whether err (or anything it wraps) is an action-layer
// abort signal.
func isAbort(err error) bool {
	var a aborter
	return errors.As(err, &a) && a.AbortsWorkflow()
}
