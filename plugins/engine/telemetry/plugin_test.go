package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rom8726/caseflow"
)

func newTestPlugin(t *testing.T, opts ...TelemetryOption) (*TelemetryPlugin, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return New(tp.Tracer("test"), opts...), exporter
}

func spanByName(spans tracetest.SpanStubs, name string) (tracetest.SpanStub, bool) {
	for _, span := range spans {
		if span.Name == name {
			return span, true
		}
	}

	return tracetest.SpanStub{}, false
}

func TestTelemetryPlugin_New(t *testing.T) {
	plugin := New(otel.Tracer("test"))

	if plugin.Name() != "telemetry" {
		t.Errorf("Name() = %q, want %q", plugin.Name(), "telemetry")
	}
	if plugin.Priority() != caseflow.PriorityHigh {
		t.Errorf("Priority() = %v, want %v", plugin.Priority(), caseflow.PriorityHigh)
	}
	if plugin.spanTTL != 24*time.Hour {
		t.Errorf("spanTTL = %v, want %v", plugin.spanTTL, 24*time.Hour)
	}
}

func TestTelemetryPlugin_NewWithOptions(t *testing.T) {
	plugin := New(nil, WithSpanTTL(time.Minute))

	if plugin.tracer == nil {
		t.Fatal("tracer should not be nil when nil is passed")
	}
	if plugin.spanTTL != time.Minute {
		t.Errorf("spanTTL = %v, want %v", plugin.spanTTL, time.Minute)
	}
}

func TestTelemetryPlugin_ExecutionLifecycle(t *testing.T) {
	plugin, exporter := newTestPlugin(t)
	ctx := context.Background()

	exec := &caseflow.WorkflowExecution{
		ID:           "exec-1",
		TemplateName: "onboarding",
		CaseID:       "case-1",
		Status:       caseflow.StatusRunning,
	}

	if err := plugin.OnExecutionStart(ctx, exec); err != nil {
		t.Fatalf("OnExecutionStart() error = %v", err)
	}

	plugin.mu.Lock()
	if _, ok := plugin.spans["execution:exec-1"]; !ok {
		t.Error("execution span not stored")
	}
	if _, ok := plugin.executionCtxs["exec-1"]; !ok {
		t.Error("execution context not stored")
	}
	plugin.mu.Unlock()

	exec.Status = caseflow.StatusCompleted
	exec.Progress = 100
	if err := plugin.OnExecutionComplete(ctx, exec); err != nil {
		t.Fatalf("OnExecutionComplete() error = %v", err)
	}

	plugin.mu.Lock()
	if len(plugin.spans) != 0 || len(plugin.executionCtxs) != 0 {
		t.Error("execution span and context should be removed after completion")
	}
	plugin.mu.Unlock()

	span, ok := spanByName(exporter.GetSpans(), "execution.onboarding")
	if !ok {
		t.Fatal("execution span not exported")
	}
	if span.Status.Code != codes.Ok {
		t.Errorf("status = %v, want Ok", span.Status.Code)
	}
}

func TestTelemetryPlugin_ExecutionFailed(t *testing.T) {
	plugin, exporter := newTestPlugin(t)
	ctx := context.Background()

	msg := "required steps failed: collect"
	exec := &caseflow.WorkflowExecution{ID: "exec-2", TemplateName: "failing", Status: caseflow.StatusFailed, Error: &msg}

	_ = plugin.OnExecutionStart(ctx, exec)
	if err := plugin.OnExecutionFailed(ctx, exec); err != nil {
		t.Fatalf("OnExecutionFailed() error = %v", err)
	}

	span, ok := spanByName(exporter.GetSpans(), "execution.failing")
	if !ok {
		t.Fatal("execution span not exported")
	}
	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status.Code)
	}

	var found bool
	for _, attr := range span.Attributes {
		if string(attr.Key) == "execution.error" && attr.Value.AsString() == msg {
			found = true
		}
	}
	if !found {
		t.Error("execution.error attribute missing")
	}
}

func TestTelemetryPlugin_StepSpansAreChildrenOfExecution(t *testing.T) {
	plugin, exporter := newTestPlugin(t)
	ctx := context.Background()

	exec := &caseflow.WorkflowExecution{ID: "exec-3", TemplateName: "tpl", Status: caseflow.StatusRunning}
	step := &caseflow.StepInstance{
		StepTemplate: caseflow.StepTemplate{ID: "collect", Handler: "collect_documents", RetryAttempts: 2},
		Status:       caseflow.StepStatusRunning,
		Attempts:     1,
	}

	_ = plugin.OnExecutionStart(ctx, exec)

	if err := plugin.OnStepStart(ctx, exec, step); err != nil {
		t.Fatalf("OnStepStart() error = %v", err)
	}
	step.Status = caseflow.StepStatusRetry
	if err := plugin.OnStepRetry(ctx, exec, step, errors.New("transient")); err != nil {
		t.Fatalf("OnStepRetry() error = %v", err)
	}

	step.Attempts = 2
	step.Status = caseflow.StepStatusRunning
	_ = plugin.OnStepStart(ctx, exec, step)
	step.Status = caseflow.StepStatusCompleted
	if err := plugin.OnStepComplete(ctx, exec, step); err != nil {
		t.Fatalf("OnStepComplete() error = %v", err)
	}

	exec.Status = caseflow.StatusCompleted
	_ = plugin.OnExecutionComplete(ctx, exec)

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("exported %d spans, want 3", len(spans))
	}

	execSpan, _ := spanByName(spans, "execution.tpl")
	var attempts int
	for _, span := range spans {
		if span.Name != "step.collect" {
			continue
		}
		attempts++
		if span.Parent.SpanID() != execSpan.SpanContext.SpanID() {
			t.Error("step span is not a child of the execution span")
		}
	}
	if attempts != 2 {
		t.Errorf("step spans = %d, want 2", attempts)
	}
}

func TestTelemetryPlugin_StepSkipped(t *testing.T) {
	plugin, exporter := newTestPlugin(t)
	ctx := context.Background()

	exec := &caseflow.WorkflowExecution{ID: "exec-4", TemplateName: "tpl"}
	step := &caseflow.StepInstance{
		StepTemplate: caseflow.StepTemplate{ID: "notify", Condition: "step_failed:collect"},
		Status:       caseflow.StepStatusSkipped,
	}

	if err := plugin.OnStepSkipped(ctx, exec, step); err != nil {
		t.Fatalf("OnStepSkipped() error = %v", err)
	}

	if _, ok := spanByName(exporter.GetSpans(), "step.notify"); !ok {
		t.Error("skip span not exported")
	}
}

func TestTelemetryPlugin_StepFailedWithoutStart(t *testing.T) {
	plugin, exporter := newTestPlugin(t)

	exec := &caseflow.WorkflowExecution{ID: "exec-5"}
	step := &caseflow.StepInstance{StepTemplate: caseflow.StepTemplate{ID: "x"}}

	if err := plugin.OnStepFailed(context.Background(), exec, step, errors.New("boom")); err != nil {
		t.Fatalf("OnStepFailed() error = %v", err)
	}
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("exported %d spans, want 0", n)
	}
}

func TestTelemetryPlugin_CleanupExpired(t *testing.T) {
	plugin, exporter := newTestPlugin(t, WithSpanTTL(time.Millisecond))
	ctx := context.Background()

	_ = plugin.OnExecutionStart(ctx, &caseflow.WorkflowExecution{ID: "old", TemplateName: "stale"})
	time.Sleep(5 * time.Millisecond)
	_ = plugin.OnExecutionStart(ctx, &caseflow.WorkflowExecution{ID: "new", TemplateName: "fresh"})

	plugin.mu.Lock()
	_, oldKept := plugin.spans["execution:old"]
	_, newKept := plugin.spans["execution:new"]
	plugin.mu.Unlock()

	if oldKept {
		t.Error("expired span should be removed")
	}
	if !newKept {
		t.Error("fresh span should be kept")
	}

	span, ok := spanByName(exporter.GetSpans(), "execution.stale")
	if !ok {
		t.Fatal("expired span should be ended and exported")
	}
	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status.Code)
	}
}
