package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tombee/flowsmith/pkg/workflow/expression"
)

// Executor drives a Workflow forward one state at a time (spec.md §4.1).
// One Executor can run many Workflows and many concurrent WorkflowRuns; its
// only mutable shared state is a compiled-expression cache (via its
// *expression.Evaluator) and a parsed-action cache keyed by state
// description text, both safe for concurrent use.
type Executor struct {
	logger    *slog.Logger
	parser    ActionParser
	evaluator *expression.Evaluator

	maxTransitions       int
	maxBranchTransitions int

	mu          sync.Mutex
	actionCache map[string]Action
}

// NewExecutor creates an Executor that parses state descriptions with
// parser (spec.md §4.2: "the core interpreter never hard-codes a DSL
// grammar").
func NewExecutor(parser ActionParser) *Executor {
	return &Executor{
		parser:               parser,
		evaluator:            expression.New(),
		logger:               slog.Default(),
		maxTransitions:       DefaultMaxTransitions,
		maxBranchTransitions: DefaultMaxBranchTransitions,
		actionCache:          make(map[string]Action),
	}
}

// WithLogger sets a custom logger for the executor.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	e.logger = logger
	return e
}

// WithEvaluator sets a custom expression evaluator, useful for sharing one
// compiled-expression cache across multiple executors.
func (e *Executor) WithEvaluator(ev *expression.Evaluator) *Executor {
	e.evaluator = ev
	return e
}

// WithMaxTransitions overrides DefaultMaxTransitions.
func (e *Executor) WithMaxTransitions(n int) *Executor {
	if n > 0 {
		e.maxTransitions = n
	}
	return e
}

// WithMaxBranchTransitions overrides DefaultMaxBranchTransitions.
func (e *Executor) WithMaxBranchTransitions(n int) *Executor {
	if n > 0 {
		e.maxBranchTransitions = n
	}
	return e
}

// Start validates wf, creates a new run positioned at its initial state
// seeded with initialContext, and drives it forward until it completes,
// fails, or pauses for manual intervention. If wf fails validation no run
// is created and the returned run is nil; on every other error the run is
// non-nil so callers can inspect its History and Status.
func (e *Executor) Start(ctx context.Context, wf Workflow, initialContext map[string]any) (*WorkflowRun, error) {
	if errs := wf.Validate(); len(errs) > 0 {
		return nil, &ValidationFailedError{Errors: errs}
	}

	run := NewRun(wf)
	for k, v := range initialContext {
		run.Context[k] = v
	}
	run.appendHistory(EventStarted, run.CurrentState, "")

	err := e.driveRun(ctx, run)
	return run, err
}

// Resume continues a previously Paused run, merging resumeContext (e.g.
// {"manual_approval": true}) into its context before re-entering the
// interpreter loop. Resuming a run that already reached a terminal status
// returns ErrWorkflowCompleted.
func (e *Executor) Resume(ctx context.Context, run *WorkflowRun, resumeContext map[string]any) error {
	if run.Status == StatusCompleted || run.Status == StatusFailed {
		return ErrWorkflowCompleted
	}

	for k, v := range resumeContext {
		run.Context[k] = v
	}
	run.Status = StatusRunning

	return e.driveRun(ctx, run)
}

// driveRun is the main interpreter loop shared by Start and Resume,
// bounded by the executor's transition limit (DefaultMaxTransitions unless
// set by WithMaxTransitions).
func (e *Executor) driveRun(ctx context.Context, run *WorkflowRun) error {
	for i := 0; i < e.maxTransitions; i++ {
		if e.atTerminal(run) {
			run.Status = StatusCompleted
			run.appendHistory(EventCompleted, run.CurrentState, "")
			return nil
		}

		state, ok := run.Workflow.lookupState(run.CurrentState)
		if !ok {
			run.Status = StatusFailed
			return &StateNotFoundError{StateID: run.CurrentState}
		}

		if requiresManualIntervention(state) && !manualApprovalGranted(run) {
			run.Status = StatusPaused
			run.appendHistory(EventStateExecution, state.ID, "paused for manual intervention")
			return ErrManualInterventionRequired
		}

		if _, err := e.oneStep(ctx, run); err != nil {
			return err
		}
	}

	run.Status = StatusFailed
	return &TransitionLimitExceededError{Limit: e.maxTransitions}
}

// oneStep executes the current state (if it has an action) with its
// configured retry/compensation/dead-letter handling, then evaluates and
// applies exactly one outgoing transition. It reports ok=true whenever
// run.CurrentState advanced (including a fork-to-join jump or a
// dead-letter reroute), so callers driving a bounded loop can count
// iterations uniformly.
func (e *Executor) oneStep(ctx context.Context, run *WorkflowRun) (bool, error) {
	state, ok := run.Workflow.lookupState(run.CurrentState)
	if !ok {
		run.Status = StatusFailed
		return false, &StateNotFoundError{StateID: run.CurrentState}
	}

	if state.Type == StateTypeFork {
		if err := e.executeFork(ctx, run, state); err != nil {
			run.Status = StatusFailed
			return false, err
		}
		return true, nil
	}

	var cfg retryConfig
	var unhandledErr error

	if state.Type == StateTypeNormal {
		cfg = retryConfig{maxAttempts: 1, backoffMultiplier: 1}
		if run.incomingTransition != nil {
			cfg = parseRetryConfig(*run.incomingTransition)
		}

		if err := e.executeStateWithRetry(ctx, run, state, cfg); err != nil {
			if isAbort(err) {
				// Bypasses skip/retry-routing/dead-letter/compensation
				// entirely: the run fails right here (spec.md §4.1.1).
				run.Status = StatusFailed
				run.appendHistory(EventFailed, state.ID, err.Error())
				return false, err
			}
			if cfg.skipOnFailure && cfg.deadLetterState == "" {
				run.setLastActionResult(true, nil, false)
				run.appendHistory(EventStateExecution, state.ID, "failure skipped via skip_on_failure")
			} else {
				// Leave last_action_result/is_error as executeState set
				// them (false/true); an ordinary OnFailure or Custom
				// transition gets first chance to route around this below.
				unhandledErr = err
			}
		}
	}

	leavingState := run.CurrentState
	next, err := e.evaluateTransitions(run, unhandledErr != nil)
	if err != nil {
		if unhandledErr == nil {
			run.Status = StatusFailed
			return false, err
		}
		// No ordinary transition absorbs the failure: fall back to
		// dead_letter_state, then an unwind of the compensation stack
		// (spec.md §4.1.1).
		routed, herr := e.handleUnhandledFailure(ctx, run, state, cfg, unhandledErr)
		if herr != nil {
			run.Status = StatusFailed
			return false, herr
		}
		return routed, nil
	}

	// The transition just selected describes the edge being taken out of
	// leavingState; a compensation_state on it registers a rollback target
	// for leavingState in case a later, still-unhandled failure occurs
	// (spec.md §4.1.1). Only registered when leavingState itself didn't
	// just fail — a failure that an OnFailure transition routed around is
	// handled, not something to protect against.
	if unhandledErr == nil && run.incomingTransition != nil && run.incomingTransition.Metadata["compensation_state"] != "" {
		run.pushCompensation(leavingState, run.incomingTransition.Metadata["compensation_state"])
	}

	e.transitionTo(run, next)
	return true, nil
}

// executeState parses (or reuses a cached parse of) state.Description and
// runs the resulting Action exactly once.
func (e *Executor) executeState(ctx context.Context, run *WorkflowRun, state State) error {
	action, err := e.parseAction(state.Description)
	if err != nil {
		return &ActionError{StateID: state.ID, Cause: err}
	}

	run.appendHistory(EventStateExecution, state.ID, "")

	result, err := action.Execute(ctx, run.Context)
	if err != nil {
		run.setLastActionResult(false, nil, true)
		return &ActionError{StateID: state.ID, Cause: err}
	}

	for k, v := range result.SetVariables {
		run.Context[k] = v
	}
	run.setLastActionResult(result.Success, result.Result, false)

	if !result.Success {
		return &ActionError{StateID: state.ID, Cause: fmt.Errorf("action reported failure")}
	}
	return nil
}

// executeStateWithRetry retries a failing action up to cfg.maxAttempts
// times with geometric backoff between attempts (spec.md §4.1.1),
// back-filling _error_context.retry_attempts once a retried action
// eventually succeeds (SPEC_FULL.md §12).
func (e *Executor) executeStateWithRetry(ctx context.Context, run *WorkflowRun, state State, cfg retryConfig) error {
	max := cfg.maxAttempts
	if max < 1 {
		max = 1
	}

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		err := e.executeState(ctx, run, state)
		if err == nil {
			if attempt > 1 {
				run.backfillErrorContextRetryAttempts(attempt - 1)
			}
			return nil
		}

		lastErr = err
		if isAbort(err) {
			return err
		}
		run.Context[CtxRetryAttempts] = attempt
		run.setErrorContext(err.Error(), state.ID, &attempt)

		if attempt == max {
			break
		}

		run.appendHistory(EventStateExecution, state.ID,
			fmt.Sprintf("retry attempt %d of %d failed: %s", attempt, max, err))

		if d := cfg.backoffDuration(attempt); d > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}
	}

	return lastErr
}

// handleUnhandledFailure is reached only once retries are exhausted, the
// failure was not skipped, and no ordinary OnFailure/Custom/Always
// transition out of the failing state matched. It applies dead_letter_state
// if declared, otherwise unwinds the compensation stack and fails the run
// (spec.md §4.1.1). routed reports whether run.CurrentState was set to a
// dead-letter target directly.
func (e *Executor) handleUnhandledFailure(ctx context.Context, run *WorkflowRun, state State, cfg retryConfig, failErr error) (routed bool, err error) {
	if cfg.deadLetterState != "" {
		run.Context[CtxDeadLetterReason] = failErr.Error()
		run.appendHistory(EventStateTransition, cfg.deadLetterState,
			fmt.Sprintf("routed to dead letter state from %q: %s", state.ID, failErr))
		run.CurrentState = cfg.deadLetterState
		run.incomingTransition = nil
		return true, nil
	}

	for {
		target, ok := run.popCompensation()
		if !ok {
			break
		}
		cState, exists := run.Workflow.lookupState(target)
		if !exists {
			run.appendHistory(EventStateExecution, target, "compensation target does not exist, skipped")
			continue
		}
		if compErr := e.executeState(ctx, run, cState); compErr != nil {
			run.appendHistory(EventStateExecution, target, fmt.Sprintf("compensation failed: %s", compErr))
		} else {
			run.appendHistory(EventStateExecution, target, "compensation executed")
		}
	}

	run.appendHistory(EventFailed, state.ID, failErr.Error())
	return false, &ExecutionFailedError{StateID: state.ID, Message: failErr.Error()}
}

// evaluateTransitions returns the ToState of the first eligible outgoing
// transition from run.CurrentState, in definition order (spec.md §4.1).
//
// When failureContext is true (the state's action failed even after
// retries), Always-conditioned transitions are not considered eligible:
// Always does not represent a deliberate choice to handle the failure, it
// fires identically on success, so letting it mask an unhandled failure
// would make dead_letter_state/compensation unreachable on any state that
// also has a default, unconditional successor. Only OnFailure and Custom
// transitions can claim to "handle" a failure.
func (e *Executor) evaluateTransitions(run *WorkflowRun, failureContext bool) (string, error) {
	for _, t := range run.Workflow.Transitions {
		if t.FromState != run.CurrentState {
			continue
		}
		if failureContext && (t.Condition.Type == ConditionAlways || t.Condition.Type == "") {
			continue
		}

		ok, err := e.evalCondition(t.Condition, run)
		if err != nil {
			return "", err
		}
		if ok {
			run.incomingTransition = &t
			return t.ToState, nil
		}
	}

	return "", &InvalidTransitionError{StateID: run.CurrentState, Reason: "no transition condition matched"}
}

func (e *Executor) evalCondition(c TransitionCondition, run *WorkflowRun) (bool, error) {
	switch c.Type {
	case ConditionAlways, "":
		return true, nil
	case ConditionNever:
		return false, nil
	case ConditionOnSuccess:
		return run.lastActionResult(true), nil
	case ConditionOnFailure:
		return !run.lastActionResult(true), nil
	case ConditionCustom:
		ok, err := e.evaluator.Evaluate(c.Expression, run.Context)
		if err != nil {
			return false, &ExpressionError{Expression: c.Expression, Cause: err}
		}
		return ok, nil
	default:
		return false, fmt.Errorf("workflow: unknown condition type %q", c.Type)
	}
}

func (e *Executor) transitionTo(run *WorkflowRun, toState string) {
	run.appendHistory(EventStateTransition, toState, fmt.Sprintf("from %s", run.CurrentState))
	run.CurrentState = toState
}

// atTerminal reports whether run is currently positioned at a terminal
// state: the implicit TerminalStateID sentinel, or any declared state with
// IsTerminal set.
func (e *Executor) atTerminal(run *WorkflowRun) bool {
	if run.CurrentState == TerminalStateID {
		return true
	}
	if s, ok := run.Workflow.States[run.CurrentState]; ok && s.IsTerminal {
		return true
	}
	return false
}

func requiresManualIntervention(s State) bool {
	return s.Metadata["requires_manual_intervention"] == "true"
}

func manualApprovalGranted(run *WorkflowRun) bool {
	v, ok := run.Context[CtxManualApproval]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// parseAction parses description once per distinct description text and
// reuses the result across states and runs that share it.
func (e *Executor) parseAction(description string) (Action, error) {
	e.mu.Lock()
	if a, ok := e.actionCache[description]; ok {
		e.mu.Unlock()
		return a, nil
	}
	e.mu.Unlock()

	a, err := e.parser.Parse(description)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.actionCache[description] = a
	e.mu.Unlock()

	return a, nil
}
