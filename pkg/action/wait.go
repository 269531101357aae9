package action

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/tombee/flowsmith/pkg/workflow"
)

// WaitDurationAction sleeps for Seconds before reporting success with a nil
// result (spec.md §4.2 "Wait <N> seconds"). The sleep is a suspension point
// (spec.md §5) and honors ctx cancellation.
type WaitDurationAction struct {
	Seconds int
}

// Execute implements workflow.Action.
func (a *WaitDurationAction) Execute(ctx context.Context, _ map[string]any) (workflow.ActionResult, error) {
	select {
	case <-ctx.Done():
		return workflow.ActionResult{}, ctx.Err()
	case <-time.After(time.Duration(a.Seconds) * time.Second):
		return workflow.ActionResult{Success: true}, nil
	}
}

// WaitInputAction blocks on Reader for a single line of input (spec.md
// §4.2 "Wait for user input"; §5: "used only outside automated runs").
type WaitInputAction struct {
	Reader io.Reader
}

// Execute implements workflow.Action.
func (a *WaitInputAction) Execute(_ context.Context, _ map[string]any) (workflow.ActionResult, error) {
	if a.Reader == nil {
		return workflow.ActionResult{}, &ExecutionError{Message: "Wait for user input: no input reader configured"}
	}

	scanner := bufio.NewScanner(a.Reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return workflow.ActionResult{}, &IoError{Cause: err}
		}
		return workflow.ActionResult{}, &IoError{Cause: io.EOF}
	}

	line := strings.TrimRight(scanner.Text(), "\r")
	return workflow.ActionResult{Success: true, Result: line}, nil
}
