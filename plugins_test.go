package caseflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlugin struct {
	BasePlugin

	mu       sync.Mutex
	events   []string
	startErr error
}

func newRecordingPlugin(name string, priority PluginPriority) *recordingPlugin {
	return &recordingPlugin{BasePlugin: NewBasePlugin(name, priority)}
}

func (p *recordingPlugin) record(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
}

func (p *recordingPlugin) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.events...)
}

func (p *recordingPlugin) OnExecutionStart(context.Context, *WorkflowExecution) error {
	p.record("execution_start")

	return nil
}

func (p *recordingPlugin) OnExecutionComplete(context.Context, *WorkflowExecution) error {
	p.record("execution_complete")

	return nil
}

func (p *recordingPlugin) OnExecutionFailed(context.Context, *WorkflowExecution) error {
	p.record("execution_failed")

	return nil
}

func (p *recordingPlugin) OnExecutionCancelled(context.Context, *WorkflowExecution) error {
	p.record("execution_cancelled")

	return nil
}

func (p *recordingPlugin) OnStepStart(_ context.Context, _ *WorkflowExecution, step *StepInstance) error {
	p.record("step_start:" + step.ID)

	return p.startErr
}

func (p *recordingPlugin) OnStepComplete(_ context.Context, _ *WorkflowExecution, step *StepInstance) error {
	p.record("step_complete:" + step.ID)

	return errors.New("ignored")
}

func (p *recordingPlugin) OnStepRetry(_ context.Context, _ *WorkflowExecution, step *StepInstance, _ error) error {
	p.record("step_retry:" + step.ID)

	return nil
}

func (p *recordingPlugin) OnStepFailed(_ context.Context, _ *WorkflowExecution, step *StepInstance, _ error) error {
	p.record("step_failed:" + step.ID)

	return nil
}

func (p *recordingPlugin) OnStepSkipped(_ context.Context, _ *WorkflowExecution, step *StepInstance) error {
	p.record("step_skipped:" + step.ID)

	return nil
}

func TestPluginManager_PriorityOrder(t *testing.T) {
	pm := NewPluginManager()
	pm.Register(newRecordingPlugin("low", PriorityLow))
	pm.Register(newRecordingPlugin("high", PriorityHigh))
	pm.Register(newRecordingPlugin("normal", PriorityNormal))

	var names []string
	for _, p := range pm.Plugins() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"high", "normal", "low"}, names)
}

func TestPluginManager_StepStartErrorStops(t *testing.T) {
	pm := NewPluginManager()
	first := newRecordingPlugin("first", PriorityHigh)
	first.startErr = errors.New("denied")
	second := newRecordingPlugin("second", PriorityLow)
	pm.Register(first)
	pm.Register(second)

	step := &StepInstance{StepTemplate: StepTemplate{ID: "s"}}
	err := pm.ExecuteStepStart(context.Background(), &WorkflowExecution{}, step)

	assert.EqualError(t, err, "plugin first failed: denied")
	assert.Empty(t, second.Events())
}

func TestPluginManager_NotifyLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	pm := NewPluginManager()
	pm.SetLogger(zerolog.New(&buf))
	plugin := newRecordingPlugin("noisy", PriorityNormal)
	pm.Register(plugin)

	pm.ExecuteStepComplete(context.Background(), &WorkflowExecution{}, &StepInstance{StepTemplate: StepTemplate{ID: "s"}})

	assert.Equal(t, []string{"step_complete:s"}, plugin.Events())
	assert.Contains(t, buf.String(), "plugin error on step complete")
	assert.Contains(t, buf.String(), `"plugin":"noisy"`)
}

func TestEngine_PluginHooks(t *testing.T) {
	pm := NewPluginManager()
	plugin := newRecordingPlugin("recorder", PriorityNormal)
	pm.Register(plugin)

	engine := newTestEngine(t, WithEnginePluginManager(pm), WithEngineMaxParallelSteps(1))

	calls := 0
	engine.RegisterHandlerFunc("flaky", func(context.Context, StepContext) (json.RawMessage, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("first try fails")
		}

		return json.RawMessage(`{"success":true}`), nil
	})
	engine.RegisterHandlerFunc("broken", failingHandler("nope"))

	tpl, err := NewBuilder("hooks", WithBuilderRetryAttempts(1)).
		Step("a", "flaky", WithStepRetryAttempts(2), WithStepRetryDelay(time.Millisecond)).
		Then("b", "broken", WithStepOptional()).
		Step("c", "flaky", WithStepDependsOn("a"), WithStepCondition("step_failed:a")).
		Build()
	require.NoError(t, err)
	require.NoError(t, engine.RegisterTemplate(tpl))

	exec := runToEnd(t, engine, "hooks", nil)
	require.Equal(t, StatusCompleted, exec.Status)

	assert.Equal(t, []string{
		"execution_start",
		"step_start:a",
		"step_retry:a",
		"step_start:a",
		"step_complete:a",
		"step_start:b",
		"step_failed:b",
		"step_skipped:c",
		"execution_complete",
	}, plugin.Events())
}

func TestEngine_PluginRejectsAttempt(t *testing.T) {
	pm := NewPluginManager()
	plugin := newRecordingPlugin("gate", PriorityHigh)
	plugin.startErr = errors.New("quota exceeded")
	pm.Register(plugin)

	engine := newTestEngine(t, WithEnginePluginManager(pm))

	called := false
	engine.RegisterHandlerFunc("ok", func(context.Context, StepContext) (json.RawMessage, error) {
		called = true

		return nil, nil
	})

	tpl, err := NewBuilder("gated", WithBuilderRetryAttempts(1)).Step("s", "ok").Build()
	require.NoError(t, err)
	require.NoError(t, engine.RegisterTemplate(tpl))

	exec := runToEnd(t, engine, "gated", nil)

	assert.Equal(t, StatusFailed, exec.Status)
	assert.False(t, called)
	assert.Contains(t, *exec.Step("s").Error, "plugin gate failed: quota exceeded")
	assert.Contains(t, plugin.Events(), "execution_failed")
}
