// Package workflow implements the deterministic state-machine interpreter
// described in spec.md §4.1: a validated graph of States connected by
// guarded Transitions, driven forward one state at a time by an Executor
// until it completes, fails, or pauses for manual intervention.
package workflow

import "fmt"

// TerminalStateID is the implicit terminal sentinel state id (spec.md §3).
// A workflow need not declare it explicitly in States; reaching it always
// completes the run.
const TerminalStateID = "[*]"

// StateType classifies how the executor dispatches a State (spec.md §3/§4.1).
type StateType string

const (
	// StateTypeNormal states parse and execute an Action from their
	// description. It is the zero value, so a State literal with no Type
	// set is Normal by default.
	StateTypeNormal StateType = ""
	// StateTypeFork states start two or more parallel branches.
	StateTypeFork StateType = "fork"
	// StateTypeJoin states are the convergence point of a Fork's branches.
	StateTypeJoin StateType = "join"
	// StateTypeChoice states have no side effect; outgoing transitions decide the path.
	StateTypeChoice StateType = "choice"
)

// State is a single node in a Workflow graph (spec.md §3).
type State struct {
	// ID uniquely identifies this state within its Workflow.
	ID string

	// Description is free text; for Normal states it also doubles as the
	// Action DSL source parsed by pkg/action (spec.md §4.2).
	Description string

	// Type classifies dispatch behavior. Zero value is StateTypeNormal.
	Type StateType

	// IsTerminal marks this state as ending the run when reached, in
	// addition to the implicit TerminalStateID sentinel.
	IsTerminal bool

	// Metadata carries runtime-significant flags such as
	// "requires_manual_intervention" (spec.md §4.1).
	Metadata map[string]string
}

// ConditionType enumerates the fixed taxonomy of transition guards
// (spec.md §3). Custom is the only variant backed by a CEL expression.
type ConditionType string

const (
	ConditionAlways    ConditionType = "always"
	ConditionNever     ConditionType = "never"
	ConditionOnSuccess ConditionType = "on_success"
	ConditionOnFailure ConditionType = "on_failure"
	ConditionCustom    ConditionType = "custom"
)

// TransitionCondition guards whether a Transition is eligible (spec.md §3).
type TransitionCondition struct {
	Type ConditionType

	// Expression holds the CEL-style expression text for ConditionCustom.
	// Unused (and must be empty) for the other condition types.
	Expression string
}

// Transition is a directed, guarded edge between two states (spec.md §3).
//
// Metadata keys with runtime meaning (spec.md §4.1.1). retry_*,
// dead_letter_state, and skip_on_failure are consulted against the
// transition that led *into* the state about to execute, governing how
// that state's own failure is handled. compensation_state is consulted
// against the transition taken *out of* a state once it succeeds,
// registering a rollback action to run later if a downstream,
// otherwise-unhandled failure occurs:
//
//	compensation_state          — rollback target pushed when this edge is taken
//	dead_letter_state           — sink state once retries are exhausted
//	skip_on_failure             — "true" swallows an unhandled failure as success
//	retry_max_attempts          — clamped to [0, 100]
//	retry_backoff_ms            — clamped to [0, 60000]
//	retry_backoff_multiplier    — clamped to [1, 10]
type Transition struct {
	FromState string
	ToState   string
	Condition TransitionCondition

	// Action is reserved by spec.md §3; the core interpreter never reads it.
	Action string

	Metadata map[string]string
}

// Workflow is a validated graph: named states, an initial state, and an
// ordered sequence of transitions evaluated in definition order (spec.md §3).
type Workflow struct {
	Name        string
	Description string

	// InitialState is the id of the State execution begins at.
	InitialState string

	// States maps state id to its definition. Insertion order is
	// irrelevant per spec.md §3.
	States map[string]State

	// Transitions is evaluated in definition order by the executor
	// (spec.md §4.1 "Transition evaluation").
	Transitions []Transition
}

// ValidationError describes one way a Workflow fails Validate.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// Validate checks the invariants spec.md §3 requires of a Workflow graph:
// the initial state exists, every transition's to_state exists (or is the
// terminal sentinel), and at least one terminal state is reachable from the
// initial state. Validate is total: it never panics and always returns the
// complete list of violations rather than stopping at the first one.
func (w *Workflow) Validate() []error {
	var errs []error

	if w.InitialState == "" {
		errs = append(errs, ValidationError{Message: "workflow has no initial state"})
	} else if _, ok := w.lookupState(w.InitialState); !ok {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("initial state %q does not exist", w.InitialState)})
	}

	for i, t := range w.Transitions {
		if _, ok := w.lookupState(t.FromState); !ok {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("transition %d: from_state %q does not exist", i, t.FromState)})
		}
		if _, ok := w.lookupState(t.ToState); !ok {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("transition %d: to_state %q does not exist", i, t.ToState)})
		}
		if t.Condition.Type == ConditionCustom && t.Condition.Expression == "" {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("transition %d: Custom condition has no expression", i)})
		}
	}

	if w.InitialState != "" {
		if !w.hasReachableTerminal() {
			errs = append(errs, ValidationError{Message: "no terminal state is reachable from the initial state"})
		}
	}

	return errs
}

// lookupState resolves id against w.States, treating TerminalStateID as
// always present even when not explicitly declared.
func (w *Workflow) lookupState(id string) (State, bool) {
	if id == TerminalStateID {
		return State{ID: TerminalStateID, IsTerminal: true}, true
	}
	s, ok := w.States[id]
	return s, ok
}

// hasReachableTerminal performs a breadth-first search over transitions
// from InitialState looking for any terminal state (IsTerminal, or the
// TerminalStateID sentinel).
func (w *Workflow) hasReachableTerminal() bool {
	visited := map[string]bool{w.InitialState: true}
	queue := []string{w.InitialState}

	adjacency := make(map[string][]string)
	for _, t := range w.Transitions {
		adjacency[t.FromState] = append(adjacency[t.FromState], t.ToState)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == TerminalStateID {
			return true
		}
		if s, ok := w.States[cur]; ok && s.IsTerminal {
			return true
		}

		for _, next := range adjacency[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}
