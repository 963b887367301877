package caseflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

type Builder struct {
	name                 string
	description          string
	steps                []StepTemplate
	index                map[string]int
	currentStep          string
	defaultRetryAttempts int
	defaultRetryDelay    time.Duration
	errs                 []error
}

func NewBuilder(name string, opts ...BuilderOption) *Builder {
	builder := &Builder{
		name:                 name,
		index:                make(map[string]int),
		defaultRetryAttempts: 3,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder
}

func (builder *Builder) Description(description string) *Builder {
	builder.description = description

	return builder
}

// Step adds a step with no implicit dependencies.
func (builder *Builder) Step(id, handler string, opts ...StepOption) *Builder {
	if _, ok := builder.index[id]; ok {
		builder.errs = append(builder.errs, fmt.Errorf("duplicate step %q", id))

		return builder
	}

	step := StepTemplate{
		ID:            id,
		Name:          id,
		Handler:       handler,
		DependsOn:     []string{},
		RetryAttempts: builder.defaultRetryAttempts,
		RetryDelay:    builder.defaultRetryDelay,
		Required:      true,
		Parameters:    make(map[string]any),
	}

	for _, opt := range opts {
		opt(&step)
	}

	builder.index[id] = len(builder.steps)
	builder.steps = append(builder.steps, step)
	builder.currentStep = id

	return builder
}

// Then adds a step that depends on the current step.
func (builder *Builder) Then(id, handler string, opts ...StepOption) *Builder {
	prev := builder.currentStep
	builder.Step(id, handler, opts...)

	if prev != "" && builder.currentStep == id {
		builder.DependsOn(prev)
	}

	return builder
}

// DependsOn appends dependencies to the current step.
func (builder *Builder) DependsOn(ids ...string) *Builder {
	step := builder.current()
	if step == nil {
		builder.errs = append(builder.errs, errors.New("DependsOn called with no current step"))

		return builder
	}

	for _, id := range ids {
		if !slices.Contains(step.DependsOn, id) {
			step.DependsOn = append(step.DependsOn, id)
		}
	}

	return builder
}

func (builder *Builder) WithRetryAttempts(attempts int) *Builder {
	if step := builder.current(); step != nil {
		step.RetryAttempts = attempts
	}

	return builder
}

func (builder *Builder) WithParameter(key string, value any) *Builder {
	if step := builder.current(); step != nil {
		step.Parameters[key] = value
	}

	return builder
}

func (builder *Builder) Build() (*WorkflowTemplate, error) {
	if builder.name == "" {
		return nil, errors.New("workflow name is required")
	}

	if len(builder.errs) > 0 {
		return nil, fmt.Errorf("builder %q: %w", builder.name, errors.Join(builder.errs...))
	}

	if len(builder.steps) == 0 {
		return nil, fmt.Errorf("builder %q: at least one step is required", builder.name)
	}

	tpl := &WorkflowTemplate{
		Name:        builder.name,
		Description: builder.description,
		Steps:       builder.steps,
	}

	if err := ValidateTemplate(tpl); err != nil {
		return nil, fmt.Errorf("builder %q: %w", builder.name, err)
	}

	return cloneTemplate(tpl), nil
}

func (builder *Builder) current() *StepTemplate {
	if builder.currentStep == "" {
		return nil
	}

	return &builder.steps[builder.index[builder.currentStep]]
}

// ValidateTemplate performs the strict checks the catalog skips: handlers are
// set, every dependency exists and the dependency graph is acyclic.
func ValidateTemplate(tpl *WorkflowTemplate) error {
	if err := validateStepIDs(tpl.Steps); err != nil {
		return err
	}

	steps := make(map[string]*StepTemplate, len(tpl.Steps))
	for i := range tpl.Steps {
		steps[tpl.Steps[i].ID] = &tpl.Steps[i]
	}

	for _, step := range tpl.Steps {
		if step.Handler == "" {
			return fmt.Errorf("%w: step %q must have a handler", ErrInvalidTemplate, step.ID)
		}

		for _, dep := range step.DependsOn {
			if dep == step.ID {
				return fmt.Errorf("%w: step %q depends on itself", ErrInvalidTemplate, step.ID)
			}
			if _, ok := steps[dep]; !ok {
				return fmt.Errorf("%w: step %q references unknown step %q", ErrInvalidTemplate, step.ID, dep)
			}
		}
	}

	visited := make(map[string]bool)
	for _, step := range tpl.Steps {
		if visited[step.ID] {
			continue
		}

		if cycle := detectCycle(step.ID, steps, visited, make(map[string]bool), nil); cycle != nil {
			return fmt.Errorf("%w: cycle detected: %s", ErrInvalidTemplate, strings.Join(cycle, " -> "))
		}
	}

	return nil
}

func detectCycle(
	current string,
	steps map[string]*StepTemplate,
	visited, recStack map[string]bool,
	path []string,
) []string {
	visited[current] = true
	recStack[current] = true
	path = append(path, current)

	step, ok := steps[current]
	if !ok {
		return nil
	}

	for _, dep := range step.DependsOn {
		if !visited[dep] {
			if cycle := detectCycle(dep, steps, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[dep] {
			start := 0
			for i, id := range path {
				if id == dep {
					start = i

					break
				}
			}

			return append(append([]string(nil), path[start:]...), dep)
		}
	}

	recStack[current] = false

	return nil
}
