package rate_limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/rom8726/caseflow"
)

func stepOf(id string) *caseflow.StepInstance {
	return &caseflow.StepInstance{StepTemplate: caseflow.StepTemplate{ID: id}}
}

func TestRateLimiterPlugin_RejectsAfterBurst(t *testing.T) {
	plugin := New(rate.Every(time.Hour), 2)
	exec := &caseflow.WorkflowExecution{ID: "exec-1", TemplateName: "onboarding"}
	ctx := context.Background()

	require.NoError(t, plugin.OnStepStart(ctx, exec, stepOf("collect")))
	require.NoError(t, plugin.OnStepStart(ctx, exec, stepOf("collect")))

	err := plugin.OnStepStart(ctx, exec, stepOf("collect"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded for onboarding:collect")

	// other steps have their own bucket
	assert.NoError(t, plugin.OnStepStart(ctx, exec, stepOf("verify")))
}

func TestRateLimiterPlugin_WaitHonoursContext(t *testing.T) {
	plugin := New(rate.Every(time.Hour), 1, WithWait())
	exec := &caseflow.WorkflowExecution{ID: "exec-1", TemplateName: "onboarding"}

	require.NoError(t, plugin.OnStepStart(context.Background(), exec, stepOf("collect")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := plugin.OnStepStart(ctx, exec, stepOf("collect"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for onboarding:collect")
}

func TestRateLimiterPlugin_WaitGetsToken(t *testing.T) {
	plugin := New(rate.Every(10*time.Millisecond), 1, WithWait())
	exec := &caseflow.WorkflowExecution{ID: "exec-1", TemplateName: "onboarding"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, plugin.OnStepStart(ctx, exec, stepOf("collect")))
	}
}
