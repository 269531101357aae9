// Package action implements the Action DSL layer (spec.md §4.2): parsing a
// state's free-text Description into a concrete workflow.Action, and the six
// DSL-recognized variants themselves (Prompt, Wait-duration, Wait-input,
// Log, SetVariable, SubWorkflow).
package action

import (
	"fmt"
	"time"
)

// ClaudeError reports a failure surfaced by the model-invoking collaborator
// behind a Prompt action (spec.md §4.2).
type ClaudeError struct {
	Message string
}

func (e *ClaudeError) Error() string { return fmt.Sprintf("action: model invocation failed: %s", e.Message) }

// VariableError reports a problem resolving or substituting a ${key}
// reference, or a malformed substitution argument key.
type VariableError struct {
	Key     string
	Message string
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("action: variable %q: %s", e.Key, e.Message)
}

// ParseError reports that a state description did not match any DSL
// grammar the Parser recognizes, or matched but with malformed arguments.
type ParseError struct {
	Description string
	Message     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("action: cannot parse %q: %s", e.Description, e.Message)
}

// TimeoutError reports that an action exceeded its configured deadline
// (Prompt default 300s, SubWorkflow default 600s; spec.md §5).
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("action: timed out after %s", e.Timeout)
}

// ExecutionError is the catch-all for action-specific failures that don't
// fit a more specific taxonomy entry (missing required prompt arguments,
// circular sub-workflow detection, and the like).
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("action: %s", e.Message) }

// IoError wraps a failure performing I/O on behalf of an action (e.g.
// reading a line for Wait-for-user-input).
type IoError struct {
	Cause error
}

func (e *IoError) Error() string { return fmt.Sprintf("action: I/O failed: %s", e.Cause) }
func (e *IoError) Unwrap() error { return e.Cause }

// JsonError wraps a failure decoding or encoding a JSON value, e.g. a
// SetVariable value that looks like JSON but does not parse, or a
// substitution argument that could not be canonically serialized.
type JsonError struct {
	Cause error
}

func (e *JsonError) Error() string { return fmt.Sprintf("action: JSON error: %s", e.Cause) }
func (e *JsonError) Unwrap() error { return e.Cause }

// RateLimitError reports that the model-invoking collaborator asked the
// caller to back off before retrying.
type RateLimitError struct {
	Message  string
	WaitTime time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("action: rate limited, retry after %s: %s", e.WaitTime, e.Message)
}

// AbortError is fatal: it bypasses retry, skip_on_failure, dead_letter_state,
// and compensation entirely, failing the run immediately (spec.md §4.1.1,
// §4.2). It implements workflow's unexported aborter interface structurally
// so pkg/workflow never needs to import this package to recognize it.
type AbortError struct {
	Message string
}

func (e *AbortError) Error() string { return fmt.Sprintf("action: aborted: %s", e.Message) }

// AbortsWorkflow satisfies pkg/workflow's aborter interface.
func (e *AbortError) AbortsWorkflow() bool { return true }
