package action

import (
	"context"
	"fmt"
	"testing"
)

type fakePromptStore struct {
	prompts map[string]Prompt
	fail    error
}

func (s *fakePromptStore) Get(name string) (Prompt, error) {
	p, ok := s.prompts[name]
	if !ok {
		return Prompt{}, fmt.Errorf("no such prompt: %s", name)
	}
	return p, nil
}

func (s *fakePromptStore) Render(_ context.Context, prompt Prompt, args map[string]any) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	return fmt.Sprintf("rendered:%s:%v", prompt.Name, args), nil
}

func TestPromptAction_Execute_Success(t *testing.T) {
	store := &fakePromptStore{prompts: map[string]Prompt{
		"greet": {Name: "greet", Arguments: []PromptArgument{{Name: "who", Required: true}}},
	}}
	a := &PromptAction{Name: "greet", Args: map[string]string{"who": "${target}"}, Store: store}

	result, err := a.Execute(context.Background(), map[string]any{"target": "world"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success")
	}
	if result.Result != "rendered:greet:map[who:world]" {
		t.Fatalf("unexpected result: %v", result.Result)
	}
}

func TestPromptAction_Execute_MissingRequiredArgument(t *testing.T) {
	store := &fakePromptStore{prompts: map[string]Prompt{
		"greet": {Name: "greet", Arguments: []PromptArgument{{Name: "who", Required: true}}},
	}}
	a := &PromptAction{Name: "greet", Args: map[string]string{}, Store: store}

	_, err := a.Execute(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for missing required argument")
	}
	ee, ok := err.(*ExecutionError)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %T: %v", err, err)
	}
	if ee.Message != "Missing required argument 'who'" {
		t.Fatalf("unexpected message: %q", ee.Message)
	}
}

func TestPromptAction_Execute_DefaultArgumentApplied(t *testing.T) {
	store := &fakePromptStore{prompts: map[string]Prompt{
		"greet": {Name: "greet", Arguments: []PromptArgument{{Name: "tone", Required: false, Default: "polite"}}},
	}}
	a := &PromptAction{Name: "greet", Args: map[string]string{}, Store: store}

	result, err := a.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Result != "rendered:greet:map[tone:polite]" {
		t.Fatalf("unexpected result: %v", result.Result)
	}
}

func TestPromptAction_Execute_ResultVariable(t *testing.T) {
	store := &fakePromptStore{prompts: map[string]Prompt{"greet": {Name: "greet"}}}
	a := &PromptAction{Name: "greet", Args: map[string]string{"result_variable": "out"}, Store: store}

	result, err := a.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.SetVariables["out"] != result.Result {
		t.Fatalf("expected result_variable to mirror Result, got %+v", result)
	}
}

func TestPromptAction_Execute_RenderFailureIsClaudeError(t *testing.T) {
	store := &fakePromptStore{prompts: map[string]Prompt{"greet": {Name: "greet"}}, fail: fmt.Errorf("boom")}
	a := &PromptAction{Name: "greet", Store: store}

	_, err := a.Execute(context.Background(), nil)
	if _, ok := err.(*ClaudeError); !ok {
		t.Fatalf("expected *ClaudeError, got %T: %v", err, err)
	}
}

func TestPromptAction_Execute_UnknownPromptIsExecutionError(t *testing.T) {
	store := &fakePromptStore{prompts: map[string]Prompt{}}
	a := &PromptAction{Name: "missing", Store: store}

	_, err := a.Execute(context.Background(), nil)
	if _, ok := err.(*ExecutionError); !ok {
		t.Fatalf("expected *ExecutionError, got %T: %v", err, err)
	}
}
