package workflow

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// branchOutcome is what one fork branch reports back after running to the
// join state.
type branchOutcome struct {
	context map[string]any
	err     error
}

// executeFork runs every outgoing transition of forkState as an
// independent branch, each with its own copy of run's context, waits for
// all of them, then merges their contexts last-writer-wins into run and
// positions run at the join state they converged on (spec.md §4.1.3).
//
// Branches never observe one another's mutations before the join: each
// gets a structural copy of the context at fork time via DeepCopyContext,
// grounded on original_source's merge_branch_contexts, which performs the
// same copy-then-merge rather than sharing a single mutable map.
func (e *Executor) executeFork(ctx context.Context, run *WorkflowRun, forkState State) error {
	var branchStarts []string
	for _, t := range run.Workflow.Transitions {
		if t.FromState == forkState.ID {
			branchStarts = append(branchStarts, t.ToState)
		}
	}
	if len(branchStarts) == 0 {
		return &InvalidTransitionError{StateID: forkState.ID, Reason: "fork state has no outgoing branch transitions"}
	}

	// Join discovery is proactive, not reactive: find the convergence point
	// before running any branch side effect, per spec.md §4.1.3 ("scan the
	// workflow's transitions; a candidate s is the join iff s.state_type ==
	// Join and every branch has a transition to s"), grounded on
	// original_source's find_join_state.
	joinState, err := e.findJoinState(run.Workflow, branchStarts)
	if err != nil {
		return err
	}

	results := make([]branchOutcome, len(branchStarts))
	var wg sync.WaitGroup

	for i, startState := range branchStarts {
		wg.Add(1)
		go func(i int, startState string) {
			defer wg.Done()

			branchRun := &WorkflowRun{
				RunID:          run.RunID + "-branch-" + strconv.Itoa(i),
				Workflow:       run.Workflow,
				CurrentState:   startState,
				Status:         StatusRunning,
				Context:        DeepCopyContext(run.Context),
				joinArrivals:   make(map[string]int),
				maxHistorySize: run.maxHistorySize,
			}

			err := e.runBranch(ctx, branchRun, joinState)
			results[i] = branchOutcome{context: branchRun.Context, err: err}
		}(i, startState)
	}

	wg.Wait()

	merged := DeepCopyContext(run.Context)
	for i, r := range results {
		if r.err != nil {
			return &ExecutionFailedError{StateID: forkState.ID, Message: fmt.Sprintf("fork branch %d failed: %s", i, r.err)}
		}

		for k, v := range r.context {
			if isLastActionResultKey(k) {
				continue
			}
			merged[k] = v
		}
	}

	run.Context = merged
	if run.joinArrivals == nil {
		run.joinArrivals = make(map[string]int)
	}
	run.joinArrivals[joinState] += len(branchStarts)
	run.appendHistory(EventStateTransition, joinState,
		fmt.Sprintf("joined %d branch(es) from %q", len(branchStarts), forkState.ID))
	run.CurrentState = joinState
	run.incomingTransition = nil
	return nil
}

// findJoinState locates the single Join-type state every branch-start state
// transitions to directly (spec.md §4.1.3). Unlike letting each branch run
// until it happens to land on some Join state, this validates the topology
// up front: a malformed fork (no convergence, or convergence only reachable
// transitively through several hops) fails before any branch's side
// effects run.
func (e *Executor) findJoinState(wf Workflow, branchStarts []string) (string, error) {
	for _, t := range wf.Transitions {
		candidate := t.ToState
		s, ok := wf.lookupState(candidate)
		if !ok || s.Type != StateTypeJoin {
			continue
		}

		allBranchesLeadHere := true
		for _, branch := range branchStarts {
			if !hasDirectTransition(wf, branch, candidate) {
				allBranchesLeadHere = false
				break
			}
		}
		if allBranchesLeadHere {
			return candidate, nil
		}
	}

	return "", &ExecutionFailedError{
		StateID: branchStarts[0],
		Message: fmt.Sprintf("no join state found for fork branches %v: all fork branches must converge at a single join state via a direct transition", branchStarts),
	}
}

func hasDirectTransition(wf Workflow, from, to string) bool {
	for _, t := range wf.Transitions {
		if t.FromState == from && t.ToState == to {
			return true
		}
	}
	return false
}

// isLastActionResultKey excludes the action-result keys from fork/join
// merge, since their post-merge meaning ("did the last action succeed")
// is ambiguous across branches (spec.md §4.1.3).
func isLastActionResultKey(key string) bool {
	switch key {
	case CtxLastActionResult, CtxSuccess, CtxFailure, CtxIsError, CtxResult:
		return true
	default:
		return false
	}
}

// runBranch drives a forked branch's own WorkflowRun forward, reusing
// oneStep, until its current_state == joinState (spec.md §4.1.3) or it
// exhausts MAX_BRANCH_TRANSITIONS.
func (e *Executor) runBranch(ctx context.Context, run *WorkflowRun, joinState string) error {
	for i := 0; i < e.maxBranchTransitions; i++ {
		if run.CurrentState == joinState {
			return nil
		}

		if _, ok := run.Workflow.lookupState(run.CurrentState); !ok {
			return &StateNotFoundError{StateID: run.CurrentState}
		}
		if e.atTerminal(run) {
			return &ExecutionFailedError{StateID: run.CurrentState, Message: fmt.Sprintf("fork branch reached terminal state %q without reaching join state %q", run.CurrentState, joinState)}
		}

		if _, err := e.oneStep(ctx, run); err != nil {
			return err
		}
	}

	return &ExecutionFailedError{StateID: run.CurrentState, Message: fmt.Sprintf("fork branch exceeded %d transitions without reaching join state %q", e.maxBranchTransitions, joinState)}
}
