package caseflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// drive runs one execution from start to a terminal status. It is the only
// goroutine that moves steps forward for this execution.
func (engine *Engine) drive(ctx context.Context, run *executionRun) {
	defer close(run.done)

	exec := run.exec
	logger := engine.execLogger(exec)

	now := time.Now()
	exec.mu.Lock()
	if exec.Status.IsTerminal() {
		// Cancelled before the driver got scheduled.
		exec.mu.Unlock()
		engine.finalize(ctx, run)

		return
	}
	if exec.Status == StatusPending {
		exec.Status = StatusRunning
	}
	exec.StartedAt = &now
	exec.UpdatedAt = now
	exec.mu.Unlock()

	engine.persist(ctx, run)
	engine.pluginManager.ExecuteExecutionStart(ctx, exec.Snapshot())
	logger.Info().Str(KeyEvent, EventExecutionStarted).Int("steps", len(exec.Steps)).Msg("execution started")

	done := make(map[string]bool, len(exec.Steps))

	for {
		if engine.checkpoint(ctx, run) {
			break
		}

		exec.mu.RLock()
		ready := exec.readyStepsLocked(done)
		exec.mu.RUnlock()

		if len(ready) == 0 {
			engine.settle(run)

			break
		}

		batch := make([]*StepInstance, 0, min(len(ready), engine.maxParallel))
		for _, step := range ready {
			if len(batch) == engine.maxParallel {
				break
			}

			if !engine.shouldRun(ctx, run, step) {
				engine.skipStep(ctx, run, step)
				done[step.ID] = true

				if engine.maxParallel == 1 {
					break
				}

				continue
			}

			batch = append(batch, step)
		}

		if len(batch) == 0 {
			continue
		}

		engine.runBatch(ctx, run, batch)

		exec.mu.RLock()
		for _, step := range batch {
			if step.Status.SatisfiesDependency() {
				done[step.ID] = true
			}
		}
		exec.mu.RUnlock()
	}

	engine.finalize(ctx, run)
}

// checkpoint is where cancellation, pause and shutdown take effect. It blocks
// while the execution is paused and reports whether the driver must stop.
func (engine *Engine) checkpoint(ctx context.Context, run *executionRun) bool {
	for {
		switch run.exec.status() {
		case StatusCancelled, StatusCompleted, StatusFailed:
			return true
		case StatusPaused:
			select {
			case <-ctx.Done():
				return true
			case <-run.control:
			}
		default:
			return ctx.Err() != nil
		}
	}
}

func (engine *Engine) runBatch(ctx context.Context, run *executionRun, batch []*StepInstance) {
	if len(batch) == 1 {
		engine.executeStep(ctx, run, batch[0])

		return
	}

	var group errgroup.Group
	group.SetLimit(engine.maxParallel)

	for _, step := range batch {
		step := step
		group.Go(func() error {
			engine.executeStep(ctx, run, step)

			return nil
		})
	}

	_ = group.Wait()
}

// shouldRun evaluates the step condition. Unknown conditions and evaluator
// errors let the step run.
func (engine *Engine) shouldRun(ctx context.Context, run *executionRun, step *StepInstance) bool {
	exec := run.exec

	exec.mu.RLock()
	condition := step.Condition
	results := cloneResults(exec.Results)
	execCtx := deepCopyMap(exec.Context)
	exec.mu.RUnlock()

	if condition == "" {
		return true
	}

	logger := engine.execLogger(exec)
	ok, err := engine.conditions.Evaluate(condition, results, execCtx)
	switch {
	case errors.Is(err, ErrUnknownCondition):
		logger.Warn().Err(err).Str(KeyStepID, step.ID).Str(KeyCondition, condition).
			Msg("unknown condition, running step")

		return true
	case err != nil:
		logger.Error().Err(err).Str(KeyStepID, step.ID).Str(KeyCondition, condition).
			Msg("condition evaluation failed, running step")

		return true
	}

	logger.Debug().Str(KeyEvent, EventConditionCheck).Str(KeyStepID, step.ID).
		Str(KeyCondition, condition).Bool(KeyResult, ok).Msg("condition evaluated")

	return ok
}

func (engine *Engine) skipStep(ctx context.Context, run *executionRun, step *StepInstance) {
	exec := run.exec

	now := time.Now()
	exec.mu.Lock()
	step.Status = StepStatusSkipped
	step.CompletedAt = &now
	exec.UpdatedAt = now
	exec.recomputeProgressLocked()
	snapshot := exec.snapshotLocked()
	exec.mu.Unlock()

	engine.persist(ctx, run)
	engine.pluginManager.ExecuteStepSkipped(ctx, snapshot, snapshot.Step(step.ID))
	engine.execLogger(exec).Info().Str(KeyEvent, EventStepSkipped).Str(KeyStepID, step.ID).
		Str(KeyCondition, step.Condition).Msg("step skipped")
}

// settle decides the final status once no step is ready. A cancelled
// execution keeps its status.
func (engine *Engine) settle(run *executionRun) {
	exec := run.exec

	exec.mu.Lock()
	defer exec.mu.Unlock()

	if exec.Status.IsTerminal() {
		return
	}

	verdict := exec.resolveOutcomeLocked()
	now := time.Now()
	exec.Status = verdict.status
	if verdict.err != "" {
		exec.Error = &verdict.err
	}
	exec.CompletedAt = &now
	exec.UpdatedAt = now
	exec.recomputeProgressLocked()
}

func (engine *Engine) finalize(ctx context.Context, run *executionRun) {
	exec := run.exec
	logger := engine.execLogger(exec)

	exec.mu.Lock()
	if !exec.Status.IsTerminal() {
		// Driver stopped by shutdown.
		now := time.Now()
		exec.Status = StatusCancelled
		exec.CompletedAt = &now
		exec.UpdatedAt = now
	}
	snapshot := exec.snapshotLocked()
	exec.mu.Unlock()

	engine.persist(ctx, run)

	switch snapshot.Status {
	case StatusCompleted:
		engine.pluginManager.ExecuteExecutionComplete(ctx, snapshot)
		logger.Info().Str(KeyEvent, EventExecutionCompleted).Float64(KeyProgress, snapshot.Progress).
			Msg("execution completed")
	case StatusFailed:
		engine.pluginManager.ExecuteExecutionFailed(ctx, snapshot)

		var reason string
		if snapshot.Error != nil {
			reason = *snapshot.Error
		}
		event := EventExecutionFailed
		if strings.HasPrefix(reason, ErrDeadlockDetected.Error()) {
			event = EventDeadlock
		}
		logger.Error().Str(KeyEvent, event).Str("error", reason).Msg("execution failed")
	case StatusCancelled:
		engine.pluginManager.ExecuteExecutionCancelled(ctx, snapshot)
		logger.Info().Str(KeyEvent, EventExecutionCancelled).Msg("execution stopped after cancellation")
	}
}
