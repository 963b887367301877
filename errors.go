package caseflow

import (
	"errors"
	"fmt"
)

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrHandlerNotFound   = errors.New("handler not found")
	ErrStepTimeout       = errors.New("step timeout")
	ErrHandlerFailure    = errors.New("handler failure")
	ErrDeadlockDetected  = errors.New("deadlock detected")
	ErrUnknownCondition  = errors.New("unknown condition")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrExecutionTerminal = errors.New("execution already finished")
	ErrEngineStopped     = errors.New("engine stopped")
)

// StepError describes a single failed attempt of a step.
type StepError struct {
	StepID  string
	Attempt int
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q attempt %d: %v", e.StepID, e.Attempt, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func newStepError(stepID string, attempt int, err error) *StepError {
	switch {
	case errors.Is(err, ErrHandlerNotFound), errors.Is(err, ErrStepTimeout):
	default:
		err = fmt.Errorf("%w: %w", ErrHandlerFailure, err)
	}

	return &StepError{StepID: stepID, Attempt: attempt, Err: err}
}
