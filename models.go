package caseflow

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusPaused    ExecutionStatus = "paused"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether no driver will touch an execution in this status again.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusRetry     StepStatus = "retry"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed || s == StepStatusSkipped
}

// SatisfiesDependency reports whether dependents of a step in this status may run.
// A failed dependency blocks its dependents forever.
func (s StepStatus) SatisfiesDependency() bool {
	return s == StepStatusCompleted || s == StepStatusSkipped
}

type RetryStrategy uint8

const (
	RetryStrategyFixed       RetryStrategy = iota // Fixed delay between retries
	RetryStrategyExponential                      // Exponential backoff: delay = base * 2^attempt
	RetryStrategyLinear                           // Linear backoff: delay = base * attempt
)

func (s RetryStrategy) String() string {
	switch s {
	case RetryStrategyExponential:
		return "exponential"
	case RetryStrategyLinear:
		return "linear"
	default:
		return "fixed"
	}
}

// ParseRetryStrategy accepts "fixed", "exponential" or "linear"; empty means fixed.
func ParseRetryStrategy(s string) (RetryStrategy, error) {
	switch s {
	case "", "fixed":
		return RetryStrategyFixed, nil
	case "exponential":
		return RetryStrategyExponential, nil
	case "linear":
		return RetryStrategyLinear, nil
	default:
		return RetryStrategyFixed, fmt.Errorf("unknown retry strategy %q", s)
	}
}

type StepTemplate struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Handler       string         `json:"handler" yaml:"handler"`
	DependsOn     []string       `json:"depends_on" yaml:"depends_on"`
	Timeout       time.Duration  `json:"timeout" yaml:"timeout"`
	RetryAttempts int            `json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration  `json:"retry_delay" yaml:"retry_delay"`
	RetryStrategy RetryStrategy  `json:"retry_strategy" yaml:"retry_strategy"`
	Required      bool           `json:"required" yaml:"required"`
	Condition     string         `json:"condition,omitempty" yaml:"condition"`
	Parameters    map[string]any `json:"parameters,omitempty" yaml:"parameters"`
}

type WorkflowTemplate struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description"`
	Steps       []StepTemplate `json:"steps" yaml:"steps"`
	CreatedAt   time.Time      `json:"created_at" yaml:"-"`
}

// StepInstance is the live state of one step inside exactly one execution.
type StepInstance struct {
	StepTemplate

	Status      StepStatus      `json:"status"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Attempts    int             `json:"attempts"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *string         `json:"error"`
}

type WorkflowExecution struct {
	ID           string                     `json:"id"`
	TemplateName string                     `json:"template_name"`
	CaseID       string                     `json:"case_id"`
	Status       ExecutionStatus            `json:"status"`
	Steps        []*StepInstance            `json:"steps"`
	Context      map[string]any             `json:"context"`
	Results      map[string]json.RawMessage `json:"results"`
	Error        *string                    `json:"error"`
	Progress     float64                    `json:"progress"`
	CreatedAt    time.Time                  `json:"created_at"`
	StartedAt    *time.Time                 `json:"started_at"`
	CompletedAt  *time.Time                 `json:"completed_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`

	mu sync.RWMutex
}

// ExecutionFilter narrows Store.ListExecutions. Zero values match everything.
type ExecutionFilter struct {
	TemplateName string          `json:"template_name"`
	CaseID       string          `json:"case_id"`
	Status       ExecutionStatus `json:"status"`
	Limit        int             `json:"limit"`
}
