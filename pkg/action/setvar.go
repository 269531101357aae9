package action

import (
	"context"
	"encoding/json"

	"github.com/tombee/flowsmith/pkg/workflow"
)

// SetVariableAction assigns Key in the run context to the parsed form of
// RawValue (spec.md §4.2 "Set <key>=\"<value>\""). RawValue is substituted
// against the run context first, then parsed as JSON; if it is not valid
// JSON the raw (substituted) string is stored instead.
type SetVariableAction struct {
	Key      string
	RawValue string
}

// Execute implements workflow.Action.
func (a *SetVariableAction) Execute(_ context.Context, runCtx map[string]any) (workflow.ActionResult, error) {
	substituted, err := substitute(a.RawValue, runCtx)
	if err != nil {
		return workflow.ActionResult{}, err
	}

	var value any
	if err := json.Unmarshal([]byte(substituted), &value); err != nil {
		value = substituted
	}

	return workflow.ActionResult{
		Success:      true,
		Result:       value,
		SetVariables: map[string]any{a.Key: value},
	}, nil
}
