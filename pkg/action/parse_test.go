package action

import (
	"context"
	"testing"
)

func TestParser_Parse_Prompt(t *testing.T) {
	p := NewParser()
	a, err := p.Parse(`Execute prompt "greet" with name="Bob" times="3"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	pa, ok := a.(*PromptAction)
	if !ok {
		t.Fatalf("expected *PromptAction, got %T", a)
	}
	if pa.Name != "greet" {
		t.Errorf("expected name %q, got %q", "greet", pa.Name)
	}
	if pa.Args["name"] != "Bob" || pa.Args["times"] != "3" {
		t.Errorf("unexpected args: %+v", pa.Args)
	}
}

func TestParser_Parse_PromptNoArgs(t *testing.T) {
	p := NewParser()
	a, err := p.Parse(`Execute prompt "greet"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	pa, ok := a.(*PromptAction)
	if !ok {
		t.Fatalf("expected *PromptAction, got %T", a)
	}
	if len(pa.Args) != 0 {
		t.Errorf("expected no args, got %+v", pa.Args)
	}
}

func TestParser_Parse_WaitDuration(t *testing.T) {
	p := NewParser()
	a, err := p.Parse("Wait 5 seconds")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	wa, ok := a.(*WaitDurationAction)
	if !ok {
		t.Fatalf("expected *WaitDurationAction, got %T", a)
	}
	if wa.Seconds != 5 {
		t.Errorf("expected 5 seconds, got %d", wa.Seconds)
	}
}

func TestParser_Parse_WaitForUserInput(t *testing.T) {
	p := NewParser()
	a, err := p.Parse("Wait for user input")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := a.(*WaitInputAction); !ok {
		t.Fatalf("expected *WaitInputAction, got %T", a)
	}
}

func TestParser_Parse_Log(t *testing.T) {
	p := NewParser()

	cases := []struct {
		desc     string
		severity Severity
		message  string
	}{
		{`Log "hello"`, SeverityInfo, "hello"},
		{`Log warning "careful"`, SeverityWarning, "careful"},
		{`Log error "bad"`, SeverityError, "bad"},
	}

	for _, c := range cases {
		a, err := p.Parse(c.desc)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", c.desc, err)
		}
		la, ok := a.(*LogAction)
		if !ok {
			t.Fatalf("Parse(%q): expected *LogAction, got %T", c.desc, a)
		}
		if la.Severity != c.severity || la.Message != c.message {
			t.Errorf("Parse(%q): got severity=%q message=%q", c.desc, la.Severity, la.Message)
		}
	}
}

func TestParser_Parse_SetVariable(t *testing.T) {
	p := NewParser()
	a, err := p.Parse(`Set x="42"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sa, ok := a.(*SetVariableAction)
	if !ok {
		t.Fatalf("expected *SetVariableAction, got %T", a)
	}
	if sa.Key != "x" || sa.RawValue != "42" {
		t.Errorf("unexpected action: %+v", sa)
	}
}

func TestParser_Parse_SubWorkflowWithResultVariable(t *testing.T) {
	p := NewParser()
	a, err := p.Parse(`Run workflow "child" with a="1" → result`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sw, ok := a.(*SubWorkflowAction)
	if !ok {
		t.Fatalf("expected *SubWorkflowAction, got %T", a)
	}
	if sw.Name != "child" || sw.Args["a"] != "1" || sw.ResultVariable != "result" {
		t.Errorf("unexpected action: %+v", sw)
	}
}

func TestParser_Parse_SubWorkflowWithoutResultVariable(t *testing.T) {
	p := NewParser()
	a, err := p.Parse(`Run workflow "child"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sw, ok := a.(*SubWorkflowAction)
	if !ok {
		t.Fatalf("expected *SubWorkflowAction, got %T", a)
	}
	if sw.Name != "child" || sw.ResultVariable != "" {
		t.Errorf("unexpected action: %+v", sw)
	}
}

func TestParser_Parse_NoOpOnEmptyOrNonMatching(t *testing.T) {
	p := NewParser()

	for _, desc := range []string{"", "   ", "this is not a recognized action line"} {
		a, err := p.Parse(desc)
		if err != nil {
			t.Fatalf("Parse(%q) unexpectedly failed: %v", desc, err)
		}
		if _, ok := a.(noopAction); !ok {
			t.Fatalf("Parse(%q): expected noopAction, got %T", desc, a)
		}

		result, err := a.Execute(context.Background(), nil)
		if err != nil || !result.Success {
			t.Fatalf("noopAction.Execute: got result=%+v err=%v", result, err)
		}
	}
}

func TestParser_Parse_InvalidArgKeyIsParseError(t *testing.T) {
	p := NewParser()
	_, err := p.Parse(`Execute prompt "x" with 2bad="v"`)
	if err == nil {
		t.Fatal("expected error for invalid argument key")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}
