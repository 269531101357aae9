package action

import (
	"context"
	"fmt"
	"time"

	"github.com/tombee/flowsmith/pkg/workflow"
)

// SubWorkflowAction loads and runs a named workflow to completion in-process
// (spec.md §4.2 `Run workflow "<name>" with k1="v1" …` [`→ <result_var>`]).
type SubWorkflowAction struct {
	Name           string
	Args           map[string]string
	ResultVariable string

	Store    workflow.Store
	Executor *workflow.Executor
	Timeout  time.Duration
}

// Execute implements workflow.Action.
func (a *SubWorkflowAction) Execute(ctx context.Context, runCtx map[string]any) (workflow.ActionResult, error) {
	if a.Store == nil {
		return workflow.ActionResult{}, &ExecutionError{Message: "SubWorkflow action: no workflow store configured"}
	}
	if a.Executor == nil {
		return workflow.ActionResult{}, &ExecutionError{Message: "SubWorkflow action: no executor configured"}
	}

	stack := workflowStackOf(runCtx)
	for _, name := range stack {
		if name == a.Name {
			return workflow.ActionResult{}, &ExecutionError{
				Message: fmt.Sprintf("Circular dependency detected: %s", a.Name),
			}
		}
	}

	wf, err := a.Store.GetWorkflow(ctx, a.Name)
	if err != nil {
		return workflow.ActionResult{}, &ExecutionError{Message: fmt.Sprintf("workflow %q not found: %s", a.Name, err)}
	}

	childContext := make(map[string]any, len(a.Args)+1)
	for k, v := range a.Args {
		sv, err := substitute(v, runCtx)
		if err != nil {
			return workflow.ActionResult{}, err
		}
		childContext[k] = sv
	}
	childStack := make([]any, 0, len(stack)+1)
	for _, name := range stack {
		childStack = append(childStack, name)
	}
	childContext[workflow.CtxWorkflowStack] = append(childStack, a.Name)

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	childRun, err := a.Executor.Start(cctx, wf, childContext)
	if err != nil {
		if cctx.Err() != nil {
			return workflow.ActionResult{}, &TimeoutError{Timeout: timeout}
		}
		return workflow.ActionResult{}, &ExecutionError{Message: fmt.Sprintf("sub-workflow %q failed: %s", a.Name, err)}
	}
	if childRun.Status != workflow.StatusCompleted {
		return workflow.ActionResult{}, &ExecutionError{
			Message: fmt.Sprintf("sub-workflow %q did not complete: status=%s", a.Name, childRun.Status),
		}
	}

	if a.ResultVariable != "" {
		result := childRun.Context[workflow.CtxResult]
		return workflow.ActionResult{
			Success:      true,
			Result:       result,
			SetVariables: map[string]any{a.ResultVariable: result},
		}, nil
	}

	merged := make(map[string]any, len(childRun.Context))
	for k, v := range childRun.Context {
		if k == workflow.CtxWorkflowStack {
			continue
		}
		merged[k] = v
	}
	return workflow.ActionResult{
		Success:      true,
		Result:       childRun.Context[workflow.CtxResult],
		SetVariables: merged,
	}, nil
}

// workflowStackOf reads the _workflow_stack reserved context key as a
// []string, tolerating the untyped []any shape a JSON round-trip or a
// hand-built context literal would produce.
func workflowStackOf(runCtx map[string]any) []string {
	raw, ok := runCtx[workflow.CtxWorkflowStack]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
