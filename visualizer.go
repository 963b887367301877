package caseflow

import (
	"fmt"
	"strings"
)

type Visualizer struct{}

func NewVisualizer() *Visualizer {
	return &Visualizer{}
}

// RenderGraph draws the dependency graph of a template as an indented tree,
// starting from the steps without dependencies. A step with several
// dependencies is drawn under the first one reached and referenced afterwards.
func (v *Visualizer) RenderGraph(tpl *WorkflowTemplate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Workflow: %s (%d steps)\n", tpl.Name, len(tpl.Steps))
	b.WriteString("======================================\n\n")

	steps := make(map[string]*StepTemplate, len(tpl.Steps))
	dependents := make(map[string][]string, len(tpl.Steps))
	for i := range tpl.Steps {
		step := &tpl.Steps[i]
		steps[step.ID] = step
		for _, dep := range step.DependsOn {
			dependents[dep] = append(dependents[dep], step.ID)
		}
	}

	visited := make(map[string]bool, len(tpl.Steps))
	for _, step := range tpl.Steps {
		if len(step.DependsOn) == 0 {
			v.renderStep(&b, steps, dependents, step.ID, 0, visited)
		}
	}

	var unreachable []string
	for _, step := range tpl.Steps {
		if !visited[step.ID] {
			unreachable = append(unreachable, step.ID)
		}
	}
	if len(unreachable) > 0 {
		fmt.Fprintf(&b, "\n⚠ unreachable (cycle or unknown dependency): %s\n", strings.Join(unreachable, ", "))
		for _, id := range unreachable {
			fmt.Fprintf(&b, "  %s depends on [%s]\n", id, strings.Join(steps[id].DependsOn, ", "))
		}
	}

	return b.String()
}

func (v *Visualizer) renderStep(
	b *strings.Builder,
	steps map[string]*StepTemplate,
	dependents map[string][]string,
	stepID string,
	indent int,
	visited map[string]bool,
) {
	if visited[stepID] {
		fmt.Fprintf(b, "%s↻ %s (already shown)\n", v.indent(indent), stepID)

		return
	}
	visited[stepID] = true

	step := steps[stepID]

	symbol := "⚙"
	if !step.Required {
		symbol = "○"
	}
	fmt.Fprintf(b, "%s%s %s [%s]\n", v.indent(indent), symbol, step.ID, step.Handler)

	if step.Condition != "" {
		fmt.Fprintf(b, "%s  ❓ when: %s\n", v.indent(indent), step.Condition)
	}
	if step.RetryAttempts > 1 {
		fmt.Fprintf(b, "%s  🔄 attempts: %d, delay: %s\n", v.indent(indent), step.RetryAttempts, step.RetryDelay)
	}
	if step.Timeout > 0 {
		fmt.Fprintf(b, "%s  ⏱ timeout: %s\n", v.indent(indent), step.Timeout)
	}

	for _, next := range dependents[stepID] {
		v.renderStep(b, steps, dependents, next, indent+1, visited)
	}
}

// RenderExecutionStatus lists the steps of an execution grouped by status.
func (v *Visualizer) RenderExecutionStatus(exec *WorkflowExecution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Execution: %s\n", exec.ID)
	fmt.Fprintf(&b, "Template: %s, case: %s\n", exec.TemplateName, exec.CaseID)
	fmt.Fprintf(&b, "Status: %s (%.0f%%)\n", exec.Status, exec.Progress)
	if exec.Error != nil {
		fmt.Fprintf(&b, "Error: %s\n", *exec.Error)
	}
	b.WriteString("======================================\n\n")

	groups := make(map[StepStatus][]*StepInstance)
	for _, step := range exec.Steps {
		groups[step.Status] = append(groups[step.Status], step)
	}

	order := []StepStatus{
		StepStatusCompleted,
		StepStatusRunning,
		StepStatusRetry,
		StepStatusPending,
		StepStatusFailed,
		StepStatusSkipped,
	}

	for _, status := range order {
		group, ok := groups[status]
		if !ok {
			continue
		}

		fmt.Fprintf(&b, "%s %s (%d steps):\n", v.getStatusSymbol(status), status, len(group))
		for _, step := range group {
			fmt.Fprintf(&b, "  %s", step.ID)
			if step.Attempts > 1 {
				fmt.Fprintf(&b, " (attempts: %d)", step.Attempts)
			}
			if step.Error != nil && status != StepStatusCompleted {
				fmt.Fprintf(&b, ": %s", *step.Error)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (v *Visualizer) getStatusSymbol(status StepStatus) string {
	switch status {
	case StepStatusCompleted:
		return "✓"
	case StepStatusRunning:
		return "▶"
	case StepStatusRetry:
		return "🔄"
	case StepStatusPending:
		return "⏸"
	case StepStatusFailed:
		return "✗"
	case StepStatusSkipped:
		return "⊘"
	default:
		return "•"
	}
}

func (v *Visualizer) indent(level int) string {
	return strings.Repeat("  ", level)
}
