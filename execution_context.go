package caseflow

import (
	"encoding/json"
	"fmt"
	"maps"
)

var _ StepContext = (*executionContext)(nil)

// executionContext is built fresh for every attempt from copies of the
// execution state, so handlers never observe later mutations.
type executionContext struct {
	executionID string
	caseID      string
	stepID      string
	attempt     int
	workflow    map[string]any
	parameters  map[string]any
	results     map[string]json.RawMessage
}

func (c *executionContext) ExecutionID() string {
	return c.executionID
}

func (c *executionContext) CaseID() string {
	return c.caseID
}

func (c *executionContext) StepID() string {
	return c.stepID
}

func (c *executionContext) Attempt() int {
	return c.attempt
}

func (c *executionContext) CloneContext() map[string]any {
	return maps.Clone(c.workflow)
}

func (c *executionContext) CloneParameters() map[string]any {
	return maps.Clone(c.parameters)
}

func (c *executionContext) CloneResults() map[string]json.RawMessage {
	return cloneResults(c.results)
}

func (c *executionContext) GetParameter(key string) (any, bool) {
	val, ok := c.parameters[key]

	return val, ok
}

func (c *executionContext) GetParameterAsString(key string) (string, bool) {
	val, ok := c.parameters[key]
	if !ok {
		return "", false
	}

	switch v := val.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func (c *executionContext) GetContextValue(key string) (any, bool) {
	val, ok := c.workflow[key]

	return val, ok
}

func (c *executionContext) GetResult(stepID string) (json.RawMessage, bool) {
	val, ok := c.results[stepID]
	if !ok {
		return nil, false
	}

	return append(json.RawMessage(nil), val...), true
}

func cloneResults(results map[string]json.RawMessage) map[string]json.RawMessage {
	if results == nil {
		return nil
	}

	cloned := make(map[string]json.RawMessage, len(results))
	for k, v := range results {
		cloned[k] = append(json.RawMessage(nil), v...)
	}

	return cloned
}
