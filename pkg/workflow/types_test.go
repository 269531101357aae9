package workflow

import "testing"

func minimalValidWorkflow() Workflow {
	return Workflow{
		Name:         "minimal",
		InitialState: "start",
		States: map[string]State{
			"start": {ID: "start", Description: "log Starting"},
		},
		Transitions: []Transition{
			{FromState: "start", ToState: TerminalStateID, Condition: TransitionCondition{Type: ConditionAlways}},
		},
	}
}

func TestWorkflow_ValidateAccepts(t *testing.T) {
	w := minimalValidWorkflow()
	if errs := w.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestWorkflow_ValidateMissingInitialState(t *testing.T) {
	w := minimalValidWorkflow()
	w.InitialState = ""
	errs := w.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for missing initial state")
	}
}

func TestWorkflow_ValidateInitialStateNotFound(t *testing.T) {
	w := minimalValidWorkflow()
	w.InitialState = "nonexistent"
	errs := w.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for unknown initial state")
	}
}

func TestWorkflow_ValidateDanglingTransitionTargets(t *testing.T) {
	w := minimalValidWorkflow()
	w.Transitions = append(w.Transitions, Transition{
		FromState: "start",
		ToState:   "ghost",
		Condition: TransitionCondition{Type: ConditionNever},
	})
	errs := w.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for dangling to_state")
	}
}

func TestWorkflow_ValidateCustomConditionNeedsExpression(t *testing.T) {
	w := minimalValidWorkflow()
	w.Transitions[0].Condition = TransitionCondition{Type: ConditionCustom}
	errs := w.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for empty custom expression")
	}
}

func TestWorkflow_ValidateUnreachableTerminal(t *testing.T) {
	w := Workflow{
		Name:         "stuck",
		InitialState: "start",
		States: map[string]State{
			"start": {ID: "start"},
			"loop":  {ID: "loop"},
		},
		Transitions: []Transition{
			{FromState: "start", ToState: "loop", Condition: TransitionCondition{Type: ConditionAlways}},
			{FromState: "loop", ToState: "start", Condition: TransitionCondition{Type: ConditionAlways}},
		},
	}
	errs := w.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for no reachable terminal state")
	}
}

func TestWorkflow_ValidateCollectsAllErrors(t *testing.T) {
	w := Workflow{
		Name:         "broken",
		InitialState: "",
		Transitions: []Transition{
			{FromState: "ghost-from", ToState: "ghost-to", Condition: TransitionCondition{Type: ConditionCustom}},
		},
	}
	errs := w.Validate()
	if len(errs) < 3 {
		t.Fatalf("expected Validate to collect multiple violations, got %d: %v", len(errs), errs)
	}
}

func TestWorkflow_ValidateIsTerminalFieldCounts(t *testing.T) {
	w := Workflow{
		Name:         "explicit-terminal",
		InitialState: "start",
		States: map[string]State{
			"start": {ID: "start"},
			"done":  {ID: "done", IsTerminal: true},
		},
		Transitions: []Transition{
			{FromState: "start", ToState: "done", Condition: TransitionCondition{Type: ConditionAlways}},
		},
	}
	if errs := w.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
