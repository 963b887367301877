package audit

import (
	"context"
	"time"

	"github.com/rom8726/caseflow"
)

var _ caseflow.Plugin = (*AuditPlugin)(nil)

type AuditLogEntry struct {
	Timestamp    time.Time      `json:"timestamp"`
	EventType    string         `json:"event_type"`
	ExecutionID  string         `json:"execution_id"`
	TemplateName string         `json:"template_name"`
	CaseID       string         `json:"case_id"`
	StepID       string         `json:"step_id,omitempty"`
	Attempt      int            `json:"attempt,omitempty"`
	Status       string         `json:"status"`
	Progress     float64        `json:"progress"`
	Error        string         `json:"error,omitempty"`
	Duration     *time.Duration `json:"duration,omitempty"`
}

type Writer interface {
	Write(ctx context.Context, entry *AuditLogEntry) error
}

// AuditPlugin writes one entry per lifecycle event. Write errors are returned
// to the plugin manager, which logs them; a failing OnStepStart write fails
// the attempt.
type AuditPlugin struct {
	caseflow.BasePlugin

	writer Writer
}

func New(writer Writer) *AuditPlugin {
	return &AuditPlugin{
		BasePlugin: caseflow.NewBasePlugin("audit", caseflow.PriorityNormal),
		writer:     writer,
	}
}

func (p *AuditPlugin) OnExecutionStart(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.logEvent(ctx, executionEntry(caseflow.EventExecutionStarted, exec))
}

func (p *AuditPlugin) OnExecutionComplete(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.logEvent(ctx, executionEntry(caseflow.EventExecutionCompleted, exec))
}

func (p *AuditPlugin) OnExecutionFailed(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.logEvent(ctx, executionEntry(caseflow.EventExecutionFailed, exec))
}

func (p *AuditPlugin) OnExecutionCancelled(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.logEvent(ctx, executionEntry(caseflow.EventExecutionCancelled, exec))
}

func (p *AuditPlugin) OnStepStart(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	return p.logEvent(ctx, stepEntry(caseflow.EventStepStarted, exec, step, nil))
}

func (p *AuditPlugin) OnStepComplete(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	return p.logEvent(ctx, stepEntry(caseflow.EventStepCompleted, exec, step, nil))
}

func (p *AuditPlugin) OnStepRetry(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	err error,
) error {
	return p.logEvent(ctx, stepEntry(caseflow.EventStepRetry, exec, step, err))
}

func (p *AuditPlugin) OnStepFailed(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	err error,
) error {
	return p.logEvent(ctx, stepEntry(caseflow.EventStepFailed, exec, step, err))
}

func (p *AuditPlugin) OnStepSkipped(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	return p.logEvent(ctx, stepEntry(caseflow.EventStepSkipped, exec, step, nil))
}

func (p *AuditPlugin) logEvent(ctx context.Context, entry *AuditLogEntry) error {
	if p.writer == nil {
		return nil
	}

	return p.writer.Write(ctx, entry)
}

func executionEntry(event string, exec *caseflow.WorkflowExecution) *AuditLogEntry {
	entry := &AuditLogEntry{
		Timestamp:    time.Now(),
		EventType:    event,
		ExecutionID:  exec.ID,
		TemplateName: exec.TemplateName,
		CaseID:       exec.CaseID,
		Status:       string(exec.Status),
		Progress:     exec.Progress,
		Duration:     duration(exec.StartedAt, exec.CompletedAt),
	}
	if exec.Error != nil {
		entry.Error = *exec.Error
	}

	return entry
}

func stepEntry(event string, exec *caseflow.WorkflowExecution, step *caseflow.StepInstance, err error) *AuditLogEntry {
	entry := &AuditLogEntry{
		Timestamp:    time.Now(),
		EventType:    event,
		ExecutionID:  exec.ID,
		TemplateName: exec.TemplateName,
		CaseID:       exec.CaseID,
		StepID:       step.ID,
		Attempt:      step.Attempts,
		Status:       string(step.Status),
		Progress:     exec.Progress,
		Duration:     duration(step.StartedAt, step.CompletedAt),
	}

	switch {
	case err != nil:
		entry.Error = err.Error()
	case step.Error != nil:
		entry.Error = *step.Error
	}

	return entry
}

func duration(start, end *time.Time) *time.Duration {
	if start == nil || end == nil {
		return nil
	}
	d := end.Sub(*start)

	return &d
}
