package caseflow

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*WorkflowExecution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		executions: make(map[string]*WorkflowExecution),
	}
}

func (s *MemoryStore) SaveExecution(_ context.Context, exec *WorkflowExecution) error {
	snapshot := exec.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[snapshot.ID] = snapshot

	return nil
}

func (s *MemoryStore) GetExecution(_ context.Context, id string) (*WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, ErrEntityNotFound
	}

	return exec.Snapshot(), nil
}

func (s *MemoryStore) ListExecutions(_ context.Context, filter ExecutionFilter) ([]*WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*WorkflowExecution, 0, len(s.executions))
	for _, exec := range s.executions {
		if filter.Matches(exec) {
			res = append(res, exec.Snapshot())
		}
	}

	return filter.apply(res), nil
}

func (s *MemoryStore) DeleteExecutionsBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, exec := range s.executions {
		if expiredBefore(exec, before) {
			delete(s.executions, id)
			deleted++
		}
	}

	return deleted, nil
}

// Matches reports whether exec passes every non-zero filter field.
func (f ExecutionFilter) Matches(exec *WorkflowExecution) bool {
	if f.TemplateName != "" && exec.TemplateName != f.TemplateName {
		return false
	}
	if f.CaseID != "" && exec.CaseID != f.CaseID {
		return false
	}
	if f.Status != "" && exec.Status != f.Status {
		return false
	}

	return true
}

// apply orders executions newest first and cuts the list to Limit.
func (f ExecutionFilter) apply(executions []*WorkflowExecution) []*WorkflowExecution {
	sort.SliceStable(executions, func(i, j int) bool {
		if executions[i].CreatedAt.Equal(executions[j].CreatedAt) {
			return executions[i].ID < executions[j].ID
		}

		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	if f.Limit > 0 && len(executions) > f.Limit {
		executions = executions[:f.Limit]
	}

	return executions
}

func expiredBefore(exec *WorkflowExecution, before time.Time) bool {
	return exec.Status.IsTerminal() && exec.CompletedAt != nil && exec.CompletedAt.Before(before)
}
