package caseflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"
)

var _ Store = (*BadgerStore)(nil)

const badgerExecutionPrefix = "execution/"

// BadgerStore keeps execution snapshots in an embedded Badger database, one
// key per execution.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens the database in dir. An empty dir opens an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	options := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) SaveExecution(_ context.Context, exec *WorkflowExecution) error {
	data, err := json.Marshal(exec.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(executionKey(exec.ID), data)
	})
}

func (s *BadgerStore) GetExecution(_ context.Context, id string) (*WorkflowExecution, error) {
	var exec *WorkflowExecution

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(executionKey(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			exec, err = decodeBadgerExecution(val)

			return err
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrEntityNotFound
		}

		return nil, err
	}

	return exec, nil
}

func (s *BadgerStore) ListExecutions(_ context.Context, filter ExecutionFilter) ([]*WorkflowExecution, error) {
	var res []*WorkflowExecution

	err := s.scan(func(exec *WorkflowExecution) error {
		if filter.Matches(exec) {
			res = append(res, exec)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return filter.apply(res), nil
}

func (s *BadgerStore) DeleteExecutionsBefore(_ context.Context, before time.Time) (int64, error) {
	var keys [][]byte

	err := s.scan(func(exec *WorkflowExecution) error {
		if expiredBefore(exec, before) {
			keys = append(keys, executionKey(exec.ID))
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete executions: %w", err)
	}

	return int64(len(keys)), nil
}

func (s *BadgerStore) scan(fn func(exec *WorkflowExecution) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerExecutionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				exec, err := decodeBadgerExecution(val)
				if err != nil {
					return err
				}

				return fn(exec)
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func executionKey(id string) []byte {
	return []byte(badgerExecutionPrefix + id)
}

func decodeBadgerExecution(val []byte) (*WorkflowExecution, error) {
	var exec WorkflowExecution
	if err := json.Unmarshal(val, &exec); err != nil {
		return nil, fmt.Errorf("unmarshal execution: %w", err)
	}

	return &exec, nil
}
