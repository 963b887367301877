package caseflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

const (
	ConditionStepSucceeded = "step_succeeded"
	ConditionStepFailed    = "step_failed"
)

// ConditionFunc decides whether a step runs. arg is the text after the first
// ':' of the condition string, or empty.
type ConditionFunc func(arg string, results map[string]json.RawMessage, execCtx map[string]any) (bool, error)

// ConditionRegistry is the named-predicate table consulted before a step runs.
type ConditionRegistry struct {
	conditions map[string]ConditionFunc
	mu         sync.RWMutex
}

func NewConditionRegistry() *ConditionRegistry {
	registry := &ConditionRegistry{
		conditions: make(map[string]ConditionFunc),
	}

	registry.Register(ConditionStepSucceeded, stepSucceededCondition)
	registry.Register(ConditionStepFailed, stepFailedCondition)

	return registry
}

func (r *ConditionRegistry) Register(name string, fn ConditionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conditions[name] = fn
}

func (r *ConditionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.conditions))
	for name := range r.conditions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Evaluate resolves a condition string. Template expressions ("{{ ... }}")
// are rendered against results and context; anything else is looked up by
// name. Unknown names yield ErrUnknownCondition.
func (r *ConditionRegistry) Evaluate(
	condition string,
	results map[string]json.RawMessage,
	execCtx map[string]any,
) (bool, error) {
	if strings.Contains(condition, "{{") {
		return evaluateExpression(condition, results, execCtx)
	}

	name, arg, _ := strings.Cut(condition, ":")
	name = strings.TrimSpace(name)

	r.mu.RLock()
	fn, ok := r.conditions[name]
	r.mu.RUnlock()

	if !ok {
		return true, fmt.Errorf("%w: %s", ErrUnknownCondition, name)
	}

	return fn(strings.TrimSpace(arg), results, execCtx)
}

func evaluateExpression(expr string, results map[string]json.RawMessage, execCtx map[string]any) (bool, error) {
	tpl, err := template.New("condition").Funcs(template.FuncMap{
		"eq": func(a, b any) bool { return a == b },
		"ne": func(a, b any) bool { return a != b },
		"gt": numericComparison(func(a, b float64) bool { return a > b }),
		"lt": numericComparison(func(a, b float64) bool { return a < b }),
		"ge": numericComparison(func(a, b float64) bool { return a >= b }),
		"le": numericComparison(func(a, b float64) bool { return a <= b }),
	}).Option("missingkey=zero").Parse(expr)
	if err != nil {
		return false, fmt.Errorf("parse condition: %w", err)
	}

	decoded := make(map[string]any, len(results))
	for stepID, raw := range results {
		var val any
		if err := json.Unmarshal(raw, &val); err != nil {
			val = string(raw)
		}
		decoded[stepID] = val
	}

	data := map[string]any{
		"results": decoded,
		"context": execCtx,
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return false, fmt.Errorf("execute condition: %w", err)
	}

	result := strings.TrimSpace(buf.String())
	switch result {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid condition output: %q", result)
	}
}

func numericComparison(cmp func(a, b float64) bool) func(a, b any) (bool, error) {
	return func(a, b any) (bool, error) {
		x, err := toFloat64(a)
		if err != nil {
			return false, err
		}
		y, err := toFloat64(b)
		if err != nil {
			return false, err
		}

		return cmp(x, y), nil
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}

func stepSucceededCondition(stepID string, results map[string]json.RawMessage, _ map[string]any) (bool, error) {
	raw, ok := results[stepID]
	if !ok {
		return false, nil
	}

	return !hasFailureMarker(raw), nil
}

func stepFailedCondition(stepID string, results map[string]json.RawMessage, _ map[string]any) (bool, error) {
	raw, ok := results[stepID]
	if !ok {
		return false, nil
	}

	return hasFailureMarker(raw), nil
}

// hasFailureMarker reports whether a step result object says the work it did
// was unsuccessful: "success": false, "failed": true or a non-empty "error".
func hasFailureMarker(raw json.RawMessage) bool {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}

	if success, ok := obj["success"].(bool); ok && !success {
		return true
	}
	if failed, ok := obj["failed"].(bool); ok && failed {
		return true
	}

	switch v := obj["error"].(type) {
	case string:
		return v != ""
	case nil:
		return false
	default:
		return true
	}
}
