package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rom8726/caseflow"
)

var _ caseflow.Plugin = (*TelemetryPlugin)(nil)

type spanEntry struct {
	span      trace.Span
	createdAt time.Time
}

type executionCtxEntry struct {
	ctx       context.Context
	createdAt time.Time
}

// TelemetryPlugin opens one span per execution and one child span per step attempt.
type TelemetryPlugin struct {
	caseflow.BasePlugin

	tracer        trace.Tracer
	mu            sync.Mutex
	spans         map[string]*spanEntry
	executionCtxs map[string]*executionCtxEntry
	spanTTL       time.Duration
}

type TelemetryOption func(*TelemetryPlugin)

// WithSpanTTL bounds how long an unfinished span is kept before it is ended
// with an error status.
func WithSpanTTL(ttl time.Duration) TelemetryOption {
	return func(p *TelemetryPlugin) {
		p.spanTTL = ttl
	}
}

func New(tracer trace.Tracer, opts ...TelemetryOption) *TelemetryPlugin {
	if tracer == nil {
		tracer = otel.Tracer("caseflow")
	}

	plugin := &TelemetryPlugin{
		BasePlugin:    caseflow.NewBasePlugin("telemetry", caseflow.PriorityHigh),
		tracer:        tracer,
		spans:         make(map[string]*spanEntry),
		executionCtxs: make(map[string]*executionCtxEntry),
		spanTTL:       24 * time.Hour,
	}

	for _, opt := range opts {
		opt(plugin)
	}

	return plugin
}

func (p *TelemetryPlugin) OnExecutionStart(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	spanName := fmt.Sprintf("execution.%s", exec.TemplateName)
	execCtx, span := p.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))

	span.SetAttributes(
		attribute.String("execution.id", exec.ID),
		attribute.String("execution.template", exec.TemplateName),
		attribute.String("execution.case_id", exec.CaseID),
		attribute.String("execution.status", string(exec.Status)),
		attribute.Int("execution.steps", len(exec.Steps)),
	)

	now := time.Now()
	p.spans[executionKey(exec.ID)] = &spanEntry{span: span, createdAt: now}
	p.executionCtxs[exec.ID] = &executionCtxEntry{ctx: execCtx, createdAt: now}

	p.cleanupExpired(now)

	return nil
}

func (p *TelemetryPlugin) OnExecutionComplete(_ context.Context, exec *caseflow.WorkflowExecution) error {
	p.endExecution(exec, codes.Ok, "execution completed")

	return nil
}

func (p *TelemetryPlugin) OnExecutionFailed(_ context.Context, exec *caseflow.WorkflowExecution) error {
	p.endExecution(exec, codes.Error, "execution failed")

	return nil
}

func (p *TelemetryPlugin) OnExecutionCancelled(_ context.Context, exec *caseflow.WorkflowExecution) error {
	p.endExecution(exec, codes.Error, "execution cancelled")

	return nil
}

func (p *TelemetryPlugin) OnStepStart(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	parent := ctx
	if entry, ok := p.executionCtxs[exec.ID]; ok {
		parent = entry.ctx
	}

	spanName := fmt.Sprintf("step.%s", step.ID)
	_, span := p.tracer.Start(parent, spanName, trace.WithSpanKind(trace.SpanKindInternal))

	span.SetAttributes(
		attribute.String("step.id", step.ID),
		attribute.String("step.handler", step.Handler),
		attribute.Int("step.attempt", step.Attempts),
		attribute.Int("step.retry_attempts", step.RetryAttempts),
		attribute.Bool("step.required", step.Required),
		attribute.String("execution.id", exec.ID),
		attribute.String("execution.template", exec.TemplateName),
	)

	now := time.Now()
	p.spans[stepKey(exec.ID, step.ID)] = &spanEntry{span: span, createdAt: now}

	p.cleanupExpired(now)

	return nil
}

func (p *TelemetryPlugin) OnStepComplete(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	p.endStep(exec, step, nil, codes.Ok, "step completed")

	return nil
}

func (p *TelemetryPlugin) OnStepRetry(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	err error,
) error {
	p.endStep(exec, step, err, codes.Error, "step attempt failed, retrying")

	return nil
}

func (p *TelemetryPlugin) OnStepFailed(
	_ context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	err error,
) error {
	p.endStep(exec, step, err, codes.Error, "step failed")

	return nil
}

func (p *TelemetryPlugin) OnStepSkipped(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	parent := ctx
	if entry, ok := p.executionCtxs[exec.ID]; ok {
		parent = entry.ctx
	}

	_, span := p.tracer.Start(parent, fmt.Sprintf("step.%s", step.ID))
	span.SetAttributes(
		attribute.String("step.id", step.ID),
		attribute.String("step.status", string(step.Status)),
		attribute.String("step.condition", step.Condition),
		attribute.String("execution.id", exec.ID),
	)
	span.SetStatus(codes.Ok, "step skipped")
	span.End()

	return nil
}

func (p *TelemetryPlugin) endExecution(exec *caseflow.WorkflowExecution, code codes.Code, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := executionKey(exec.ID)
	if entry, ok := p.spans[key]; ok {
		entry.span.SetAttributes(
			attribute.String("execution.status", string(exec.Status)),
			attribute.Float64("execution.progress", exec.Progress),
		)
		if exec.Error != nil {
			entry.span.SetAttributes(attribute.String("execution.error", *exec.Error))
		}
		entry.span.SetStatus(code, description)
		entry.span.End()
		delete(p.spans, key)
	}
	delete(p.executionCtxs, exec.ID)
}

func (p *TelemetryPlugin) endStep(
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	err error,
	code codes.Code,
	description string,
) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := stepKey(exec.ID, step.ID)
	entry, ok := p.spans[key]
	if !ok {
		return
	}

	entry.span.SetAttributes(
		attribute.String("step.status", string(step.Status)),
		attribute.Int("step.attempt", step.Attempts),
	)
	if err != nil {
		entry.span.RecordError(err)
	}
	entry.span.SetStatus(code, description)
	entry.span.End()
	delete(p.spans, key)
}

func (p *TelemetryPlugin) cleanupExpired(now time.Time) {
	for key, entry := range p.spans {
		if now.Sub(entry.createdAt) > p.spanTTL {
			entry.span.SetStatus(codes.Error, "span expired due to TTL")
			entry.span.End()
			delete(p.spans, key)
		}
	}

	for id, entry := range p.executionCtxs {
		if now.Sub(entry.createdAt) > p.spanTTL {
			delete(p.executionCtxs, id)
		}
	}
}

func executionKey(id string) string {
	return "execution:" + id
}

func stepKey(executionID, stepID string) string {
	return "step:" + executionID + ":" + stepID
}
