package caseflow

import (
	"context"
	"time"
)

// Persister receives a snapshot after every state transition of an
// execution. SaveExecution must be an idempotent upsert keyed by execution id.
type Persister interface {
	SaveExecution(ctx context.Context, exec *WorkflowExecution) error
}

// ExecutionReader serves persisted snapshots.
type ExecutionReader interface {
	GetExecution(ctx context.Context, id string) (*WorkflowExecution, error)
	ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*WorkflowExecution, error)
}

type Store interface {
	Persister
	ExecutionReader

	// DeleteExecutionsBefore removes terminal executions completed before the
	// given time and returns how many were removed.
	DeleteExecutionsBefore(ctx context.Context, before time.Time) (int64, error)
}
