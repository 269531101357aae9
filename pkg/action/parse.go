package action

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tombee/flowsmith/pkg/workflow"
)

// DSL grammar (spec.md §6, informal PCRE-style). Whitespace-only or
// non-matching descriptions are not an error: Parse returns a no-op action
// for them, since a Choice or Join state's description is rarely action
// DSL at all.
var (
	promptPattern      = regexp.MustCompile(`^Execute prompt "([^"]+)"(?: with (.+))?$`)
	waitDurPattern     = regexp.MustCompile(`^Wait (\d+) seconds$`)
	waitInputPattern   = regexp.MustCompile(`^Wait for user input$`)
	logPattern         = regexp.MustCompile(`^Log( warning| error)? "([^"]*)"$`)
	setVarPattern      = regexp.MustCompile(`^Set ([A-Za-z_][A-Za-z0-9_]*)="(.*)"$`)
	subWorkflowPattern = regexp.MustCompile(`^Run workflow "([^"]+)"(?: with (.+?))?(?: → ([A-Za-z_][A-Za-z0-9_]*))?$`)
)

// Parser turns a workflow state's Description into a workflow.Action
// according to the DSL grammar in spec.md §6. It implements
// workflow.ActionParser and is the only piece of this package the Executor
// is wired to directly (spec.md §4.2: "the core interpreter never
// hard-codes a DSL grammar").
type Parser struct {
	promptStore PromptStore
	store       workflow.Store
	executor    *workflow.Executor
	logger      *slog.Logger
	input       io.Reader

	promptTimeout   time.Duration
	workflowTimeout time.Duration
}

// NewParser creates a Parser with the spec.md §4.2/§5 defaults: a 300s
// Prompt timeout, a 600s SubWorkflow timeout, stdin for Wait-for-user-input,
// and slog.Default() for Log.
func NewParser() *Parser {
	return &Parser{
		logger:          slog.Default(),
		input:           os.Stdin,
		promptTimeout:   300 * time.Second,
		workflowTimeout: 600 * time.Second,
	}
}

// WithPromptStore wires the external collaborator the Prompt action renders
// and invokes against (spec.md §6 "Prompt-store interface consumed").
func (p *Parser) WithPromptStore(s PromptStore) *Parser {
	p.promptStore = s
	return p
}

// WithWorkflowStore wires the external collaborator the SubWorkflow action
// loads named workflows from (spec.md §6 "Workflow-store interface consumed").
func (p *Parser) WithWorkflowStore(s workflow.Store) *Parser {
	p.store = s
	return p
}

// WithSubExecutor sets the Executor used to run sub-workflows to completion
// in-process. If left unset, each parsed SubWorkflow action gets its own
// workflow.NewExecutor(p), which parses with this Parser but keeps its own
// action cache.
func (p *Parser) WithSubExecutor(e *workflow.Executor) *Parser {
	p.executor = e
	return p
}

// WithLogger sets the logger the Log action writes to.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	p.logger = logger
	return p
}

// WithInputReader sets the reader Wait-for-user-input blocks on.
func (p *Parser) WithInputReader(r io.Reader) *Parser {
	p.input = r
	return p
}

// WithPromptTimeout overrides the 300s default.
func (p *Parser) WithPromptTimeout(d time.Duration) *Parser {
	if d > 0 {
		p.promptTimeout = d
	}
	return p
}

// WithWorkflowTimeout overrides the 600s default.
func (p *Parser) WithWorkflowTimeout(d time.Duration) *Parser {
	if d > 0 {
		p.workflowTimeout = d
	}
	return p
}

// Parse implements workflow.ActionParser.
func (p *Parser) Parse(description string) (workflow.Action, error) {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return noopAction{}, nil
	}

	if m := promptPattern.FindStringSubmatch(trimmed); m != nil {
		return p.parsePrompt(trimmed, m)
	}
	if m := subWorkflowPattern.FindStringSubmatch(trimmed); m != nil {
		return p.parseSubWorkflow(trimmed, m)
	}
	if m := waitDurPattern.FindStringSubmatch(trimmed); m != nil {
		return parseWaitDuration(trimmed, m)
	}
	if waitInputPattern.MatchString(trimmed) {
		return &WaitInputAction{Reader: p.input}, nil
	}
	if m := logPattern.FindStringSubmatch(trimmed); m != nil {
		return parseLog(m, p.logger)
	}
	if m := setVarPattern.FindStringSubmatch(trimmed); m != nil {
		return &SetVariableAction{Key: m[1], RawValue: m[2]}, nil
	}

	return noopAction{}, nil
}

// parseArgs parses a repeated, whitespace-separated k="v" argument list
// (spec.md §6 "args = ... (repeated, whitespace-separated)"). It tokenizes
// by hand rather than with a single global regex match so that a malformed
// key (e.g. "2bad") is rejected outright instead of a lenient regex
// silently matching a valid-looking suffix of it.
func parseArgs(description, argsSrc string) (map[string]string, error) {
	args := make(map[string]string)
	s := strings.TrimSpace(argsSrc)
	for s != "" {
		eq := strings.IndexByte(s, '=')
		if eq < 0 || eq+1 >= len(s) || s[eq+1] != '"' {
			return nil, &ParseError{Description: description, Message: "malformed argument near " + strconv.Quote(s)}
		}

		key := s[:eq]
		if err := validateArgKey(description, key); err != nil {
			return nil, err
		}

		rest := s[eq+2:]
		endQuote := strings.IndexByte(rest, '"')
		if endQuote < 0 {
			return nil, &ParseError{Description: description, Message: "unterminated quoted value for argument " + strconv.Quote(key)}
		}

		args[key] = rest[:endQuote]
		s = strings.TrimSpace(rest[endQuote+1:])
	}
	return args, nil
}

func (p *Parser) parsePrompt(description string, m []string) (workflow.Action, error) {
	args, err := parseArgs(description, m[2])
	if err != nil {
		return nil, err
	}
	return &PromptAction{
		Name:    m[1],
		Args:    args,
		Store:   p.promptStore,
		Timeout: p.promptTimeout,
	}, nil
}

func (p *Parser) parseSubWorkflow(description string, m []string) (workflow.Action, error) {
	args, err := parseArgs(description, m[2])
	if err != nil {
		return nil, err
	}
	exec := p.executor
	if exec == nil {
		exec = workflow.NewExecutor(p)
	}
	return &SubWorkflowAction{
		Name:           m[1],
		Args:           args,
		ResultVariable: m[3],
		Store:          p.store,
		Executor:       exec,
		Timeout:        p.workflowTimeout,
	}, nil
}

func parseWaitDuration(description string, m []string) (workflow.Action, error) {
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &ParseError{Description: description, Message: "invalid wait duration: " + err.Error()}
	}
	return &WaitDurationAction{Seconds: n}, nil
}

func parseLog(m []string, logger *slog.Logger) (workflow.Action, error) {
	severity := SeverityInfo
	switch strings.TrimSpace(m[1]) {
	case "warning":
		severity = SeverityWarning
	case "error":
		severity = SeverityError
	}
	return &LogAction{Severity: severity, Message: m[2], Logger: logger}, nil
}

// noopAction is returned for whitespace-only or non-matching descriptions
// (spec.md §6). It always reports success with a nil result.
type noopAction struct{}

func (noopAction) Execute(_ context.Context, _ map[string]any) (workflow.ActionResult, error) {
	return workflow.ActionResult{Success: true}, nil
}
