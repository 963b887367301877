package caseflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMonitor_GetTemplateStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Now().Add(-time.Hour)
	save := func(id, tpl string, status ExecutionStatus, dur time.Duration) {
		start := base
		exec := &WorkflowExecution{
			ID:           id,
			TemplateName: tpl,
			Status:       status,
			CreatedAt:    base,
			StartedAt:    &start,
			UpdatedAt:    base,
		}
		if status.IsTerminal() {
			end := start.Add(dur)
			exec.CompletedAt = &end
		}
		require.NoError(t, store.SaveExecution(ctx, exec))
	}

	save("1", "onboarding", StatusCompleted, 2*time.Second)
	save("2", "onboarding", StatusFailed, 4*time.Second)
	save("3", "onboarding", StatusRunning, 0)
	save("4", "billing", StatusCancelled, time.Second)

	stats, err := NewStoreMonitor(store).GetTemplateStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "billing", stats[0].TemplateName)
	assert.Equal(t, 1, stats[0].CancelledExecutions)
	assert.Equal(t, time.Second, stats[0].AverageDuration)

	onboarding := stats[1]
	assert.Equal(t, 3, onboarding.TotalExecutions)
	assert.Equal(t, 1, onboarding.CompletedExecutions)
	assert.Equal(t, 1, onboarding.FailedExecutions)
	assert.Equal(t, 1, onboarding.ActiveExecutions)
	assert.Equal(t, 3*time.Second, onboarding.AverageDuration)
}

func TestStoreMonitor_Empty(t *testing.T) {
	stats, err := NewStoreMonitor(NewMemoryStore()).GetTemplateStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats)
}
