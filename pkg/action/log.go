package action

import (
	"context"
	"log/slog"

	"github.com/tombee/flowsmith/pkg/workflow"
)

// Severity is the logging level a Log action emits at (spec.md §4.2:
// `Log "msg"` / `Log warning "msg"` / `Log error "msg"`).
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogAction emits Message, substituted against the run context, at
// Severity, and reports it back as the action result (spec.md §4.2:
// "result = the message string").
type LogAction struct {
	Severity Severity
	Message  string
	Logger   *slog.Logger
}

// Execute implements workflow.Action.
func (a *LogAction) Execute(_ context.Context, runCtx map[string]any) (workflow.ActionResult, error) {
	msg, err := substitute(a.Message, runCtx)
	if err != nil {
		return workflow.ActionResult{}, err
	}

	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch a.Severity {
	case SeverityWarning:
		logger.Warn(msg)
	case SeverityError:
		logger.Error(msg)
	default:
		logger.Info(msg)
	}

	return workflow.ActionResult{Success: true, Result: msg}, nil
}
