package caseflow

import (
	"time"
)

type StepOption func(step *StepTemplate)

func WithStepRetryAttempts(attempts int) StepOption {
	return func(step *StepTemplate) {
		step.RetryAttempts = attempts
	}
}

func WithStepRetryDelay(delay time.Duration) StepOption {
	return func(step *StepTemplate) {
		step.RetryDelay = delay
	}
}

func WithStepRetryStrategy(strategy RetryStrategy) StepOption {
	return func(step *StepTemplate) {
		step.RetryStrategy = strategy
	}
}

func WithStepTimeout(timeout time.Duration) StepOption {
	return func(step *StepTemplate) {
		step.Timeout = timeout
	}
}

// WithStepOptional marks the step as not required: its failure does not fail the execution.
func WithStepOptional() StepOption {
	return func(step *StepTemplate) {
		step.Required = false
	}
}

func WithStepCondition(condition string) StepOption {
	return func(step *StepTemplate) {
		step.Condition = condition
	}
}

func WithStepDependsOn(ids ...string) StepOption {
	return func(step *StepTemplate) {
		step.DependsOn = append(step.DependsOn, ids...)
	}
}

func WithStepName(name string) StepOption {
	return func(step *StepTemplate) {
		step.Name = name
	}
}

func WithStepParameters(params map[string]any) StepOption {
	return func(step *StepTemplate) {
		for k, v := range params {
			step.Parameters[k] = v
		}
	}
}

type BuilderOption func(builder *Builder)

func WithBuilderRetryAttempts(attempts int) BuilderOption {
	return func(builder *Builder) {
		builder.defaultRetryAttempts = attempts
	}
}

func WithBuilderRetryDelay(delay time.Duration) BuilderOption {
	return func(builder *Builder) {
		builder.defaultRetryDelay = delay
	}
}
