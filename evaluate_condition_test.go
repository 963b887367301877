package caseflow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionRegistry_Builtins(t *testing.T) {
	registry := NewConditionRegistry()

	results := map[string]json.RawMessage{
		"ok":      json.RawMessage(`{"success":true}`),
		"bad":     json.RawMessage(`{"success":false}`),
		"failed":  json.RawMessage(`{"failed":true}`),
		"error":   json.RawMessage(`{"error":"denied"}`),
		"noerror": json.RawMessage(`{"error":""}`),
		"scalar":  json.RawMessage(`42`),
		"nullish": json.RawMessage(`null`),
	}

	tests := []struct {
		condition string
		want      bool
	}{
		{"step_succeeded:ok", true},
		{"step_succeeded:bad", false},
		{"step_succeeded:failed", false},
		{"step_succeeded:error", false},
		{"step_succeeded:noerror", true},
		{"step_succeeded:scalar", true},
		{"step_succeeded:nullish", true},
		{"step_succeeded:missing", false},
		{"step_failed:bad", true},
		{"step_failed:error", true},
		{"step_failed:ok", false},
		{"step_failed:missing", false},
		{" step_failed : bad ", true},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			got, err := registry.Evaluate(tt.condition, results, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionRegistry_Expressions(t *testing.T) {
	registry := NewConditionRegistry()

	results := map[string]json.RawMessage{
		"score": json.RawMessage(`{"value": 87}`),
	}
	execCtx := map[string]any{"country": "NL", "amount": 250.0, "count": 2}

	tests := []struct {
		name     string
		expr     string
		expected bool
		hasError bool
	}{
		{name: "result_gt_true", expr: "{{ gt .results.score.value 80 }}", expected: true},
		{name: "result_lt_false", expr: "{{ lt .results.score.value 80 }}", expected: false},
		{name: "context_eq", expr: `{{ eq .context.country "NL" }}`, expected: true},
		{name: "context_ne", expr: `{{ ne .context.country "NL" }}`, expected: false},
		{name: "and", expr: `{{ and (ge .context.amount 100) (le .context.amount 500) }}`, expected: true},
		{name: "int_context", expr: "{{ lt .context.count 3 }}", expected: true},
		{name: "not_a_number", expr: "{{ gt .context.country 3 }}", hasError: true},
		{name: "not_bool_output", expr: "{{ .context.country }}", hasError: true},
		{name: "parse_error", expr: "{{ gt .results ", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Evaluate(tt.expr, results, execCtx)
			if tt.hasError {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConditionRegistry_CustomAndUnknown(t *testing.T) {
	registry := NewConditionRegistry()

	var gotArg string
	registry.Register("vip", func(arg string, _ map[string]json.RawMessage, execCtx map[string]any) (bool, error) {
		gotArg = arg

		return execCtx["tier"] == arg, nil
	})
	registry.Register("broken", func(string, map[string]json.RawMessage, map[string]any) (bool, error) {
		return false, errors.New("evaluator down")
	})

	ok, err := registry.Evaluate("vip:gold", nil, map[string]any{"tier": "gold"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "gold", gotArg)

	_, err = registry.Evaluate("broken", nil, nil)
	assert.EqualError(t, err, "evaluator down")

	ok, err = registry.Evaluate("who_knows", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownCondition)
	assert.True(t, ok)

	assert.Equal(t, []string{"broken", "step_failed", "step_succeeded", "vip"}, registry.Names())
}
