package caseflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// newExecution instantiates a template. Steps are deep copies, so later
// template changes and sibling executions never share mutable state.
func newExecution(id string, tpl *WorkflowTemplate, caseID string, execCtx map[string]any, now time.Time) *WorkflowExecution {
	steps := make([]*StepInstance, len(tpl.Steps))
	for i := range tpl.Steps {
		stepTpl := cloneStepTemplate(tpl.Steps[i])
		normalizeStepTemplate(&stepTpl)
		steps[i] = &StepInstance{
			StepTemplate: stepTpl,
			Status:       StepStatusPending,
		}
	}

	return &WorkflowExecution{
		ID:           id,
		TemplateName: tpl.Name,
		CaseID:       caseID,
		Status:       StatusPending,
		Steps:        steps,
		Context:      deepCopyMap(execCtx),
		Results:      make(map[string]json.RawMessage, len(steps)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Snapshot returns a deep copy that is safe to read while the driver keeps running.
func (e *WorkflowExecution) Snapshot() *WorkflowExecution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.snapshotLocked()
}

func (e *WorkflowExecution) snapshotLocked() *WorkflowExecution {
	steps := make([]*StepInstance, len(e.Steps))
	for i, step := range e.Steps {
		steps[i] = step.clone()
	}

	return &WorkflowExecution{
		ID:           e.ID,
		TemplateName: e.TemplateName,
		CaseID:       e.CaseID,
		Status:       e.Status,
		Steps:        steps,
		Context:      deepCopyMap(e.Context),
		Results:      cloneResults(e.Results),
		Error:        cloneStringPtr(e.Error),
		Progress:     e.Progress,
		CreatedAt:    e.CreatedAt,
		StartedAt:    cloneTimePtr(e.StartedAt),
		CompletedAt:  cloneTimePtr(e.CompletedAt),
		UpdatedAt:    e.UpdatedAt,
	}
}

// Step returns the step instance with the given id, or nil.
func (e *WorkflowExecution) Step(id string) *StepInstance {
	for _, step := range e.Steps {
		if step.ID == id {
			return step
		}
	}

	return nil
}

func (e *WorkflowExecution) status() ExecutionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.Status
}

func (e *WorkflowExecution) completedAt() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return cloneTimePtr(e.CompletedAt)
}

// recomputeProgressLocked sets Progress to the share of steps in a terminal status.
func (e *WorkflowExecution) recomputeProgressLocked() {
	if len(e.Steps) == 0 {
		e.Progress = 100

		return
	}

	terminal := 0
	for _, step := range e.Steps {
		if step.Status.IsTerminal() {
			terminal++
		}
	}

	progress := float64(terminal) * 100 / float64(len(e.Steps))
	if progress > e.Progress {
		e.Progress = progress
	}
}

// readyStepsLocked lists, in template order, the pending steps whose
// dependencies are all in done.
func (e *WorkflowExecution) readyStepsLocked(done map[string]bool) []*StepInstance {
	var ready []*StepInstance

	for _, step := range e.Steps {
		if step.Status != StepStatusPending {
			continue
		}

		runnable := true
		for _, dep := range step.DependsOn {
			if !done[dep] {
				runnable = false

				break
			}
		}

		if runnable {
			ready = append(ready, step)
		}
	}

	return ready
}

// unresolvedDependencies maps step ids to the dependency ids that do not exist
// in the execution.
func (e *WorkflowExecution) unresolvedDependencies() map[string][]string {
	known := make(map[string]struct{}, len(e.Steps))
	for _, step := range e.Steps {
		known[step.ID] = struct{}{}
	}

	unresolved := make(map[string][]string)
	for _, step := range e.Steps {
		for _, dep := range step.DependsOn {
			if _, ok := known[dep]; !ok {
				unresolved[step.ID] = append(unresolved[step.ID], dep)
			}
		}
	}

	return unresolved
}

// outcome is the terminal verdict for an execution with no ready steps.
type outcome struct {
	status ExecutionStatus
	err    string
}

// resolveOutcomeLocked decides how an execution ends once nothing is runnable.
// Any pending step left at this point can never run, whatever the reason, so
// the execution is deadlocked.
func (e *WorkflowExecution) resolveOutcomeLocked() outcome {
	var failedRequired, pending []string
	for _, step := range e.Steps {
		switch {
		case step.Required && step.Status == StepStatusFailed:
			failedRequired = append(failedRequired, step.ID)
		case step.Status == StepStatusPending:
			pending = append(pending, step.ID)
		}
	}

	switch {
	case len(failedRequired) > 0:
		return outcome{
			status: StatusFailed,
			err:    fmt.Sprintf("required steps failed: %s", strings.Join(failedRequired, ", ")),
		}
	case len(pending) > 0:
		return outcome{status: StatusFailed, err: e.deadlockDiagnosticLocked(pending)}
	default:
		return outcome{status: StatusCompleted}
	}
}

// deadlockDiagnosticLocked names the reason each pending step is stuck.
func (e *WorkflowExecution) deadlockDiagnosticLocked(pending []string) string {
	var details []string

	unresolved := e.unresolvedDependencies()
	ids := make([]string, 0, len(unresolved))
	for id := range unresolved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		details = append(details, fmt.Sprintf("step %s references unknown steps [%s]",
			id, strings.Join(unresolved[id], ", ")))
	}

	pendingSet := make(map[string]bool, len(pending))
	for _, id := range pending {
		pendingSet[id] = true
	}

	failed := make(map[string]bool)
	for _, step := range e.Steps {
		if step.Status == StepStatusFailed {
			failed[step.ID] = true
		}
	}
	blocked := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, id := range pending {
			if blocked[id] {
				continue
			}
			for _, dep := range e.Step(id).DependsOn {
				if failed[dep] || blocked[dep] {
					blocked[id] = true
					changed = true

					break
				}
			}
		}
	}

	var cyclic, blockedByFailed, waiting []string
	for _, id := range pending {
		_, hasUnknown := unresolved[id]
		switch {
		case e.onCycleLocked(id, pendingSet):
			cyclic = append(cyclic, id)
		case hasUnknown:
		case blocked[id]:
			blockedByFailed = append(blockedByFailed, id)
		default:
			waiting = append(waiting, id)
		}
	}

	if len(cyclic) > 0 {
		details = append(details, fmt.Sprintf("circular dependency among [%s]", strings.Join(cyclic, ", ")))
	}
	if len(blockedByFailed) > 0 {
		details = append(details, fmt.Sprintf("steps [%s] blocked by failed dependencies",
			strings.Join(blockedByFailed, ", ")))
	}
	if len(waiting) > 0 {
		details = append(details, fmt.Sprintf("steps [%s] wait on steps that can never run",
			strings.Join(waiting, ", ")))
	}

	msg := fmt.Sprintf("%s: pending steps [%s] can never run", ErrDeadlockDetected, strings.Join(pending, ", "))
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}

	return msg
}

// onCycleLocked reports whether id can reach itself through dependencies
// between pending steps.
func (e *WorkflowExecution) onCycleLocked(id string, pending map[string]bool) bool {
	visited := make(map[string]bool)
	stack := []string{id}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		step := e.Step(current)
		if step == nil {
			continue
		}
		for _, dep := range step.DependsOn {
			if dep == id {
				return true
			}
			if pending[dep] && !visited[dep] {
				visited[dep] = true
				stack = append(stack, dep)
			}
		}
	}

	return false
}

func (s *StepInstance) clone() *StepInstance {
	return &StepInstance{
		StepTemplate: cloneStepTemplate(s.StepTemplate),
		Status:       s.Status,
		StartedAt:    cloneTimePtr(s.StartedAt),
		CompletedAt:  cloneTimePtr(s.CompletedAt),
		Attempts:     s.Attempts,
		Result:       append(json.RawMessage(nil), s.Result...),
		Error:        cloneStringPtr(s.Error),
	}
}

// executionRun is the engine-side handle of a live execution.
type executionRun struct {
	exec      *WorkflowExecution
	done      chan struct{}
	control   chan struct{}
	persistMu sync.Mutex
}

func newExecutionRun(exec *WorkflowExecution) *executionRun {
	return &executionRun{
		exec:    exec,
		done:    make(chan struct{}),
		control: make(chan struct{}, 1),
	}
}

// signal wakes a driver waiting on a pause or backoff.
func (run *executionRun) signal() {
	select {
	case run.control <- struct{}{}:
	default:
	}
}

func (run *executionRun) finished() bool {
	select {
	case <-run.done:
		return true
	default:
		return false
	}
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t

	return &v
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s

	return &v
}
