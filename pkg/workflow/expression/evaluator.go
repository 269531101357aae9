// Package expression evaluates CEL-style custom transition conditions
// against a workflow's context map.
package expression

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	flowerrors "github.com/tombee/flowsmith/pkg/errors"
)

// Evaluator compiles and caches condition expressions. Callers share one
// Evaluator per Executor (spec.md §4.1.4: "a compiled-CEL-program cache
// keyed by expression text"); concurrent reads are safe, compilation is
// the only path that takes a write lock.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// New creates an Evaluator with an empty cache.
func New() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Evaluate compiles (or reuses a cached compilation of) expression and runs
// it against ctx, which should be the workflow run's context map. An empty
// expression is rejected with a *errors.ValidationError; Workflow.Validate
// already reports a Custom condition with no expression, so a validated
// workflow does not reach that case.
func (e *Evaluator) Evaluate(expression string, ctx map[string]interface{}) (bool, error) {
	if expression == "" {
		return false, &flowerrors.ValidationError{
			Field:      "condition.expression",
			Message:    "custom condition has no expression",
			Suggestion: "set a CEL expression on the Custom condition, or use Always/Never",
		}
	}

	program, err := e.compile(expression)
	if err != nil {
		return false, &flowerrors.ValidationError{
			Field:      "condition.expression",
			Message:    fmt.Sprintf("failed to compile expression: %s", err),
			Suggestion: "check expression syntax and that referenced context keys exist",
		}
	}

	result, err := expr.Run(program, ctx)
	if err != nil {
		return false, &flowerrors.ValidationError{
			Field:      "condition.expression",
			Message:    fmt.Sprintf("expression evaluation failed: %s", err),
			Suggestion: "verify that all referenced context keys exist",
		}
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, &flowerrors.ValidationError{
			Field:      "condition.expression",
			Message:    fmt.Sprintf("expression must return boolean, got %T (%v)", result, result),
			Suggestion: "use comparison operators (==, !=, <, >) or boolean functions",
		}
	}

	return boolResult, nil
}

// compile compiles expression and memoizes the program, matching the
// teacher's double-checked-cache shape in pkg/workflow/expression/evaluator.go.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// IsCached reports whether expression has already been compiled, mirroring
// original_source's is_cel_program_cached debug accessor.
func (e *Evaluator) IsCached(expression string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.cache[expression]
	return ok
}

// CacheSize returns the number of distinct compiled expressions cached.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// ClearCache empties the compiled-program cache. Mainly useful for tests.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*vm.Program)
	e.mu.Unlock()
}
