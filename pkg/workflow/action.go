package workflow

import "context"

// ActionResult is what an Action reports back to the executor after
// running: whether it succeeded, the value to store under the reserved
// "result" context key, and any variables it wants merged into the run's
// context (spec.md §4.2).
type ActionResult struct {
	Success bool
	Result  any

	// SetVariables is merged into WorkflowRun.Context after execution, in
	// addition to the reserved success/failure/result keys the executor
	// always sets.
	SetVariables map[string]any
}

// Action is the polymorphic contract every state's parsed description
// implements (spec.md §4.2). Defined here, not in pkg/action, so this
// package never imports pkg/action: pkg/action depends on pkg/workflow for
// Workflow/Executor/Store and implements this interface, avoiding
// the import cycle a SubWorkflow action would otherwise create (grounded
// on tombee-conductor/pkg/workflow/subworkflow/loader.go's adapter-pattern
// cycle avoidance).
type Action interface {
	// Execute runs the action against the run's current context. ctx is the
	// Go context.Context carrying cancellation/deadline, distinct from the
	// workflow run's own context map (runCtx).
	Execute(ctx context.Context, runCtx map[string]any) (ActionResult, error)
}

// ActionParser turns a state's Description into an Action, implemented by
// pkg/action.Parser and passed to the Executor through NewExecutor
// (spec.md §4.2: "the core interpreter never hard-codes a DSL grammar").
type ActionParser interface {
	Parse(description string) (Action, error)
}
