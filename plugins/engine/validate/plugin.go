package validate

import (
	"context"
	"fmt"
	"sync"

	"github.com/rom8726/caseflow"
)

var _ caseflow.Plugin = (*ValidationPlugin)(nil)

// ValidationRule checks the parameters a step passes to its handler.
type ValidationRule func(params map[string]any) error

// ValidationPlugin runs rules registered for a handler name before every
// attempt of a step using that handler. A failing rule fails the attempt.
type ValidationPlugin struct {
	caseflow.BasePlugin

	rules map[string][]ValidationRule
	mu    sync.RWMutex
}

func New() *ValidationPlugin {
	return &ValidationPlugin{
		BasePlugin: caseflow.NewBasePlugin("validation", caseflow.PriorityHigh),
		rules:      make(map[string][]ValidationRule),
	}
}

func (p *ValidationPlugin) AddRule(handler string, rule ValidationRule) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rules[handler] = append(p.rules[handler], rule)
}

func (p *ValidationPlugin) OnStepStart(
	_ context.Context,
	_ *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	p.mu.RLock()
	rules := p.rules[step.Handler]
	p.mu.RUnlock()

	for i, rule := range rules {
		if err := rule(step.Parameters); err != nil {
			return fmt.Errorf("validation rule %d failed for step %q: %w", i, step.ID, err)
		}
	}

	return nil
}

// RequireParams fails when any of the keys is missing from the parameters.
func RequireParams(keys ...string) ValidationRule {
	return func(params map[string]any) error {
		for _, key := range keys {
			if _, ok := params[key]; !ok {
				return fmt.Errorf("missing parameter %q", key)
			}
		}

		return nil
	}
}
