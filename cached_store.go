package caseflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

var _ Store = (*CachedStore)(nil)

// CachedStore puts a ristretto read cache in front of another Store. Writes go
// through to the backing store first and then refresh the cache entry.
type CachedStore struct {
	backing Store
	cache   *ristretto.Cache
	ttl     time.Duration
}

// NewCachedStore caches up to size executions for ttl (0 keeps entries until evicted).
func NewCachedStore(backing Store, size int64, ttl time.Duration) (*CachedStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * size,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &CachedStore{backing: backing, cache: cache, ttl: ttl}, nil
}

func (s *CachedStore) SaveExecution(ctx context.Context, exec *WorkflowExecution) error {
	if err := s.backing.SaveExecution(ctx, exec); err != nil {
		s.cache.Del(exec.ID)

		return err
	}

	s.set(exec.Snapshot())

	return nil
}

func (s *CachedStore) GetExecution(ctx context.Context, id string) (*WorkflowExecution, error) {
	if value, found := s.cache.Get(id); found {
		if exec, ok := value.(*WorkflowExecution); ok {
			return exec.Snapshot(), nil
		}
	}

	exec, err := s.backing.GetExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(exec.Snapshot())

	return exec, nil
}

func (s *CachedStore) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*WorkflowExecution, error) {
	return s.backing.ListExecutions(ctx, filter)
}

func (s *CachedStore) DeleteExecutionsBefore(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.backing.DeleteExecutionsBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.cache.Clear()
	}

	return deleted, nil
}

// Wait blocks until buffered cache writes are applied.
func (s *CachedStore) Wait() {
	s.cache.Wait()
}

func (s *CachedStore) Close() {
	s.cache.Close()
}

func (s *CachedStore) set(exec *WorkflowExecution) {
	if s.ttl > 0 {
		s.cache.SetWithTTL(exec.ID, exec, 1, s.ttl)

		return
	}
	s.cache.Set(exec.ID, exec, 1)
}
