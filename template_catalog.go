package caseflow

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// TemplateCatalog holds immutable workflow templates by name.
// Every template is deep-copied on the way in and on the way out.
type TemplateCatalog struct {
	templates map[string]*WorkflowTemplate
	mu        sync.RWMutex
}

func NewTemplateCatalog() *TemplateCatalog {
	return &TemplateCatalog{
		templates: make(map[string]*WorkflowTemplate),
	}
}

// Register validates step id uniqueness and stores a copy of tpl.
// Dependency references are not checked here; unresolved ones surface as a
// deadlock when an execution of the template runs.
func (c *TemplateCatalog) Register(tpl *WorkflowTemplate) error {
	if tpl == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}

	if tpl.Name == "" {
		return fmt.Errorf("%w: template name is required", ErrInvalidTemplate)
	}

	if err := validateStepIDs(tpl.Steps); err != nil {
		return err
	}

	stored := cloneTemplate(tpl)
	for i := range stored.Steps {
		normalizeStepTemplate(&stored.Steps[i])
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	c.mu.Lock()
	c.templates[stored.Name] = stored
	c.mu.Unlock()

	return nil
}

func (c *TemplateCatalog) Get(name string) (*WorkflowTemplate, error) {
	c.mu.RLock()
	tpl, ok := c.templates[name]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	return cloneTemplate(tpl), nil
}

func (c *TemplateCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func validateStepIDs(steps []StepTemplate) error {
	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("%w: step #%d has no id", ErrInvalidTemplate, i)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidTemplate, step.ID)
		}
		seen[step.ID] = struct{}{}
	}

	return nil
}

func normalizeStepTemplate(step *StepTemplate) {
	if step.RetryAttempts < 1 {
		step.RetryAttempts = 1
	}
	if step.Name == "" {
		step.Name = step.ID
	}
}

func cloneTemplate(tpl *WorkflowTemplate) *WorkflowTemplate {
	cloned := &WorkflowTemplate{
		Name:        tpl.Name,
		Description: tpl.Description,
		CreatedAt:   tpl.CreatedAt,
		Steps:       make([]StepTemplate, len(tpl.Steps)),
	}
	for i := range tpl.Steps {
		cloned.Steps[i] = cloneStepTemplate(tpl.Steps[i])
	}

	return cloned
}

func cloneStepTemplate(step StepTemplate) StepTemplate {
	step.DependsOn = append([]string(nil), step.DependsOn...)
	step.Parameters = deepCopyMap(step.Parameters)

	return step
}

func deepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}

	return dst
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = deepCopyValue(val[i])
		}

		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
