package metrics

import (
	"context"
	"time"

	"github.com/rom8726/caseflow"
)

var _ caseflow.Plugin = (*MetricsPlugin)(nil)

// MetricsPlugin reports execution and step activity to a MetricsCollector.
// Durations come from the timestamps on the snapshots, so the plugin keeps no state.
type MetricsPlugin struct {
	caseflow.BasePlugin

	collector MetricsCollector
}

func New(collector MetricsCollector) *MetricsPlugin {
	return &MetricsPlugin{
		BasePlugin: caseflow.NewBasePlugin("metrics", caseflow.PriorityHigh),
		collector:  collector,
	}
}

func (p *MetricsPlugin) OnExecutionStart(_ context.Context, exec *caseflow.WorkflowExecution) error {
	if p.collector != nil {
		p.collector.RecordExecutionStarted(exec.TemplateName)
	}

	return nil
}

func (p *MetricsPlugin) OnExecutionComplete(_ context.Context, exec *caseflow.WorkflowExecution) error {
	p.executionFinished(exec)

	return nil
}

func (p *MetricsPlugin) OnExecutionFailed(_ context.Context, exec *caseflow.WorkflowExecution) error {
	p.executionFinished(exec)

	return nil
}

func (p *MetricsPlugin) OnExecutionCancelled(_ context.Context, exec *caseflow.WorkflowExecution) error {
	p.executionFinished(exec)

	return nil
}

func (p *MetricsPlugin) OnStepStart(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	if p.collector != nil {
		p.collector.RecordStepStarted(exec.TemplateName, step.ID, step.Attempts)
	}

	return nil
}

func (p *MetricsPlugin) OnStepComplete(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	if p.collector != nil {
		p.collector.RecordStepFinished(exec.TemplateName, step.ID, step.Status, between(step.StartedAt, step.CompletedAt))
	}

	return nil
}

func (p *MetricsPlugin) OnStepRetry(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	_ error,
) error {
	if p.collector != nil {
		p.collector.RecordStepRetry(exec.TemplateName, step.ID)
	}

	return nil
}

func (p *MetricsPlugin) OnStepFailed(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	_ error,
) error {
	if p.collector != nil {
		p.collector.RecordStepFinished(exec.TemplateName, step.ID, step.Status, between(step.StartedAt, step.CompletedAt))
	}

	return nil
}

func (p *MetricsPlugin) OnStepSkipped(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	if p.collector != nil {
		p.collector.RecordStepSkipped(exec.TemplateName, step.ID)
	}

	return nil
}

func (p *MetricsPlugin) executionFinished(exec *caseflow.WorkflowExecution) {
	if p.collector != nil {
		p.collector.RecordExecutionFinished(exec.TemplateName, exec.Status, between(exec.StartedAt, exec.CompletedAt))
	}
}

func between(start, end *time.Time) time.Duration {
	if start == nil || end == nil || end.Before(*start) {
		return 0
	}

	return end.Sub(*start)
}
