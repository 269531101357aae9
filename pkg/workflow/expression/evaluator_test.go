package expression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/flowsmith/pkg/workflow/expression"
)

func TestEvaluator_EmptyExpressionIsRejected(t *testing.T) {
	e := expression.New()
	_, err := e.Evaluate("", map[string]interface{}{})
	require.Error(t, err)
}

func TestEvaluator_BasicComparison(t *testing.T) {
	e := expression.New()
	ctx := map[string]interface{}{"retry_attempts": 3}

	ok, err := e.Evaluate("retry_attempts >= 3", ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate("retry_attempts < 3", ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_UndefinedVariableEvaluatesAsNil(t *testing.T) {
	e := expression.New()
	ok, err := e.Evaluate("missing_key == true", map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_NonBoolResultErrors(t *testing.T) {
	e := expression.New()
	_, err := e.Evaluate("1 + 1", map[string]interface{}{})
	require.Error(t, err)
}

func TestEvaluator_CachesCompiledPrograms(t *testing.T) {
	e := expression.New()
	expr := "success == true"
	ctx := map[string]interface{}{"success": true}

	assert.False(t, e.IsCached(expr))
	_, err := e.Evaluate(expr, ctx)
	require.NoError(t, err)
	assert.True(t, e.IsCached(expr))
	assert.Equal(t, 1, e.CacheSize())

	_, err = e.Evaluate(expr, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, e.CacheSize())

	e.ClearCache()
	assert.Equal(t, 0, e.CacheSize())
}

func TestEvaluator_InvalidSyntax(t *testing.T) {
	e := expression.New()
	_, err := e.Evaluate("this is not valid(((", map[string]interface{}{})
	require.Error(t, err)
}
