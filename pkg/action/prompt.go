package action

import (
	"context"
	"fmt"
	"time"

	"github.com/tombee/flowsmith/pkg/workflow"
)

// PromptArgument declares one named, optionally-required, optionally-
// defaulted input a Prompt accepts (spec.md §6).
type PromptArgument struct {
	Name     string
	Required bool
	Default  any
}

// Prompt is the external template the PromptStore resolves a name to
// (spec.md §6).
type Prompt struct {
	Name      string
	Content   string
	Arguments []PromptArgument
}

// PromptStore is the external collaborator consumed by PromptAction
// (spec.md §6). Render performs both the Liquid-style template
// substitution and the model invocation it describes as one logical step —
// the core never makes an HTTP call to a model provider itself (SPEC_FULL.md
// §11): whatever network I/O Render does is entirely the embedder's concern.
type PromptStore interface {
	// Get resolves name to its declared Prompt, including argument metadata
	// used for required/default validation.
	Get(name string) (Prompt, error)

	// Render substitutes args into prompt and returns the resulting model
	// text.
	Render(ctx context.Context, prompt Prompt, args map[string]any) (string, error)
}

// PromptAction invokes a named prompt template with substituted arguments
// (spec.md §4.2 `Execute prompt "<name>" with k1="v1" k2="v2" …`).
type PromptAction struct {
	Name    string
	Args    map[string]string
	Store   PromptStore
	Timeout time.Duration
}

// resultVariableArgKey is the reserved Prompt argument key used to request
// the result additionally be written to a named context variable. spec.md
// §4.2 describes this behavior for Prompt actions ("if result_variable was
// set, also writes there") without extending the Prompt DSL grammar with an
// arrow clause the way SubWorkflow's grammar does; this package resolves
// the ambiguity by treating "result_variable" as a reserved argument key
// rather than a real prompt argument (documented in DESIGN.md).
const resultVariableArgKey = "result_variable"

// Execute implements workflow.Action.
func (a *PromptAction) Execute(ctx context.Context, runCtx map[string]any) (workflow.ActionResult, error) {
	if a.Store == nil {
		return workflow.ActionResult{}, &ExecutionError{Message: "Prompt action: no prompt store configured"}
	}

	prompt, err := a.Store.Get(a.Name)
	if err != nil {
		return workflow.ActionResult{}, &ExecutionError{Message: fmt.Sprintf("prompt %q not found: %s", a.Name, err)}
	}

	resultVariable := a.Args[resultVariableArgKey]

	substituted := make(map[string]any, len(a.Args))
	for k, v := range a.Args {
		if k == resultVariableArgKey {
			continue
		}
		sv, err := substitute(v, runCtx)
		if err != nil {
			return workflow.ActionResult{}, err
		}
		substituted[k] = sv
	}

	finalArgs, err := bindPromptArgs(prompt, substituted)
	if err != nil {
		return workflow.ActionResult{}, err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := a.Store.Render(cctx, prompt, finalArgs)
	if err != nil {
		if cctx.Err() != nil {
			return workflow.ActionResult{}, &TimeoutError{Timeout: timeout}
		}
		return workflow.ActionResult{}, &ClaudeError{Message: err.Error()}
	}

	setVars := map[string]any{}
	if resultVariable != "" {
		setVars[resultVariable] = text
	}

	return workflow.ActionResult{Success: true, Result: text, SetVariables: setVars}, nil
}

// bindPromptArgs checks substituted against prompt's declared arguments:
// required arguments must be present, missing optional arguments fall back
// to their Default, and any caller-supplied argument not declared on the
// prompt still passes through (spec.md §4.2: "Missing required arguments
// ⇒ ExecutionError").
func bindPromptArgs(prompt Prompt, substituted map[string]any) (map[string]any, error) {
	final := make(map[string]any, len(substituted))
	declared := make(map[string]bool, len(prompt.Arguments))

	for _, pa := range prompt.Arguments {
		declared[pa.Name] = true
		if v, ok := substituted[pa.Name]; ok {
			final[pa.Name] = v
			continue
		}
		if pa.Required {
			return nil, &ExecutionError{Message: fmt.Sprintf("Missing required argument '%s'", pa.Name)}
		}
		if pa.Default != nil {
			final[pa.Name] = pa.Default
		}
	}

	for k, v := range substituted {
		if !declared[k] {
			final[k] = v
		}
	}

	return final, nil
}
