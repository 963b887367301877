package caseflow

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrive_CancelledBeforeStart(t *testing.T) {
	pm := NewPluginManager()
	plugin := newRecordingPlugin("recorder", PriorityNormal)
	pm.Register(plugin)

	persister := &recordingPersister{}
	engine := newTestEngine(t, WithEnginePluginManager(pm), WithEngineStore(persister))

	var calls atomic.Int32
	engine.RegisterHandlerFunc("ok", func(context.Context, StepContext) (json.RawMessage, error) {
		calls.Add(1)

		return nil, nil
	})

	tpl := &WorkflowTemplate{
		Name:  "never-started",
		Steps: []StepTemplate{{ID: "a", Handler: "ok", Required: true, RetryAttempts: 1}},
	}
	exec := newExecution("exec-1", tpl, "case-1", nil, time.Now())
	run := newExecutionRun(exec)

	cancelledAt := time.Now()
	exec.Status = StatusCancelled
	exec.CompletedAt = &cancelledAt

	engine.drive(context.Background(), run)

	select {
	case <-run.done:
	default:
		t.Fatal("driver did not close done")
	}

	snapshot := exec.Snapshot()
	assert.Equal(t, StatusCancelled, snapshot.Status)
	assert.Nil(t, snapshot.StartedAt)
	assert.Equal(t, StepStatusPending, snapshot.Step("a").Status)
	assert.Zero(t, calls.Load())
	assert.Equal(t, []string{"execution_cancelled"}, plugin.Events())

	saved := persister.all()
	require.NotEmpty(t, saved)
	assert.Equal(t, StatusCancelled, saved[len(saved)-1].Status)
}
