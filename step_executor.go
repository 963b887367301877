package caseflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// executeStep runs attempts of one step until it completes, runs out of
// attempts or the execution stops. Failures end in the step state only.
func (engine *Engine) executeStep(ctx context.Context, run *executionRun, step *StepInstance) {
	exec := run.exec
	logger := engine.execLogger(exec).With().Str(KeyStepID, step.ID).Str(KeyHandler, step.Handler).Logger()

	for {
		stepCtx, snapshot := engine.beginAttempt(run, step)
		attempt := stepCtx.attempt
		engine.persist(ctx, run)
		logger.Debug().Str(KeyEvent, EventStepStarted).Int(KeyAttempt, attempt).Msg("step started")

		err := engine.pluginManager.ExecuteStepStart(ctx, snapshot, snapshot.Step(step.ID))
		var output json.RawMessage
		if err == nil {
			output, err = engine.invokeHandler(ctx, step.Handler, step.Timeout, stepCtx)
		}

		if err == nil {
			snapshot = engine.completeStep(run, step, output)
			engine.persist(ctx, run)
			engine.pluginManager.ExecuteStepComplete(ctx, snapshot, snapshot.Step(step.ID))
			logger.Info().Str(KeyEvent, EventStepCompleted).Int(KeyAttempt, attempt).
				Float64(KeyProgress, snapshot.Progress).Msg("step completed")

			return
		}

		stepErr := newStepError(step.ID, attempt, err)

		if attempt >= step.RetryAttempts {
			engine.failStep(ctx, run, step, stepErr)
			logger.Error().Err(stepErr).Str(KeyEvent, EventStepFailed).Int(KeyAttempt, attempt).Msg("step failed")

			return
		}

		delay := CalculateRetryDelay(step.RetryStrategy, step.RetryDelay, attempt)
		snapshot = engine.markRetry(run, step, stepErr)
		engine.persist(ctx, run)
		engine.pluginManager.ExecuteStepRetry(ctx, snapshot, snapshot.Step(step.ID), stepErr)
		logger.Warn().Err(stepErr).Str(KeyEvent, EventStepRetry).Int(KeyAttempt, attempt).
			Dur(KeyDelay, delay).Msg("step attempt failed, retrying")

		if !engine.backoff(ctx, run, delay) {
			engine.failStep(ctx, run, step, fmt.Errorf("retry abandoned, execution stopped: %w", stepErr))
			logger.Warn().Str(KeyEvent, EventStepFailed).Int(KeyAttempt, attempt).
				Msg("execution stopped during retry backoff")

			return
		}
	}
}

// beginAttempt moves the step to RUNNING and builds the handler context from
// copies taken in the same critical section.
func (engine *Engine) beginAttempt(run *executionRun, step *StepInstance) (*executionContext, *WorkflowExecution) {
	exec := run.exec

	now := time.Now()
	exec.mu.Lock()
	defer exec.mu.Unlock()

	step.Attempts++
	step.Status = StepStatusRunning
	step.StartedAt = &now
	exec.UpdatedAt = now

	stepCtx := &executionContext{
		executionID: exec.ID,
		caseID:      exec.CaseID,
		stepID:      step.ID,
		attempt:     step.Attempts,
		workflow:    deepCopyMap(exec.Context),
		parameters:  deepCopyMap(step.Parameters),
		results:     cloneResults(exec.Results),
	}

	return stepCtx, exec.snapshotLocked()
}

func (engine *Engine) completeStep(run *executionRun, step *StepInstance, output json.RawMessage) *WorkflowExecution {
	exec := run.exec

	if len(output) == 0 {
		output = json.RawMessage("null")
	}

	now := time.Now()
	exec.mu.Lock()
	defer exec.mu.Unlock()

	step.Status = StepStatusCompleted
	step.CompletedAt = &now
	step.Result = append(json.RawMessage(nil), output...)
	step.Error = nil
	exec.Results[step.ID] = append(json.RawMessage(nil), output...)
	exec.UpdatedAt = now
	exec.recomputeProgressLocked()

	return exec.snapshotLocked()
}

func (engine *Engine) markRetry(run *executionRun, step *StepInstance, err error) *WorkflowExecution {
	exec := run.exec

	msg := err.Error()
	now := time.Now()
	exec.mu.Lock()
	defer exec.mu.Unlock()

	step.Status = StepStatusRetry
	step.Error = &msg
	exec.UpdatedAt = now

	return exec.snapshotLocked()
}

func (engine *Engine) failStep(ctx context.Context, run *executionRun, step *StepInstance, err error) {
	exec := run.exec

	msg := err.Error()
	now := time.Now()
	exec.mu.Lock()
	step.Status = StepStatusFailed
	step.Error = &msg
	step.CompletedAt = &now
	exec.UpdatedAt = now
	exec.recomputeProgressLocked()
	snapshot := exec.snapshotLocked()
	exec.mu.Unlock()

	engine.persist(ctx, run)
	engine.pluginManager.ExecuteStepFailed(ctx, snapshot, snapshot.Step(step.ID), err)
}

// backoff sleeps for delay and then holds while the execution is paused. It
// returns false when the execution was cancelled or the engine shut down in
// the meantime.
func (engine *Engine) backoff(ctx context.Context, run *executionRun, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-run.control:
			if run.exec.status() == StatusCancelled {
				return false
			}
		case <-timer.C:
			return !engine.checkpoint(ctx, run)
		}
	}
}

// invokeHandler calls the handler with the step timeout applied. The result
// of a handler that overruns its timeout is discarded.
func (engine *Engine) invokeHandler(
	ctx context.Context,
	handlerName string,
	timeout time.Duration,
	stepCtx StepContext,
) (json.RawMessage, error) {
	handler, err := engine.handlers.Lookup(handlerName)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		return checkOutput(handler.Execute(ctx, stepCtx))
	}

	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type handlerResult struct {
		output json.RawMessage
		err    error
	}

	resultCh := make(chan handlerResult, 1)
	go func() {
		output, err := handler.Execute(invokeCtx, stepCtx)
		resultCh <- handlerResult{output: output, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil && errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: handler %s exceeded %s: %w", ErrStepTimeout, handlerName, timeout, res.err)
		}

		return checkOutput(res.output, res.err)
	case <-invokeCtx.Done():
		if errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: handler %s exceeded %s", ErrStepTimeout, handlerName, timeout)
		}

		return nil, invokeCtx.Err()
	}
}

func checkOutput(output json.RawMessage, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	if len(output) > 0 && !json.Valid(output) {
		return nil, errors.New("handler returned invalid JSON")
	}

	return output, nil
}
