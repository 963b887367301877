package caseflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps execution snapshots in a single SQLite table. Filter
// columns are denormalised next to the JSON snapshot.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteInMemoryStore creates an in-memory SQLite database and initializes schema.
func NewSQLiteInMemoryStore() (*SQLiteStore, error) {
	return NewSQLiteStore(context.Background(), ":memory:")
}

// NewSQLiteStore opens (or creates) the database at dsn and migrates it.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout=5000;")
	// single connection keeps :memory: consistent and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunSQLiteMigrations(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveExecution(ctx context.Context, exec *WorkflowExecution) error {
	snapshot := exec.Snapshot()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	const query = `INSERT INTO workflow_executions
		(id, template_name, case_id, status, progress, error, snapshot, created_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			error = excluded.error,
			snapshot = excluded.snapshot,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.TemplateName, snapshot.CaseID, string(snapshot.Status),
		snapshot.Progress, snapshot.Error, string(data),
		snapshot.CreatedAt.UnixMilli(), unixMilliOrNil(snapshot.CompletedAt), snapshot.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert execution: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*WorkflowExecution, error) {
	var data string

	row := s.db.QueryRowContext(ctx, `SELECT snapshot FROM workflow_executions WHERE id = ?`, id)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}

		return nil, fmt.Errorf("select execution: %w", err)
	}

	return decodeExecution([]byte(data))
}

func (s *SQLiteStore) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*WorkflowExecution, error) {
	var (
		where []string
		args  []any
	)
	if filter.TemplateName != "" {
		where = append(where, "template_name = ?")
		args = append(args, filter.TemplateName)
	}
	if filter.CaseID != "" {
		where = append(where, "case_id = ?")
		args = append(args, filter.CaseID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT snapshot FROM workflow_executions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var res []*WorkflowExecution
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}

		exec, err := decodeExecution([]byte(data))
		if err != nil {
			return nil, err
		}
		res = append(res, exec)
	}

	return res, rows.Err()
}

func (s *SQLiteStore) DeleteExecutionsBefore(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM workflow_executions
		WHERE status IN (?, ?, ?) AND completed_at IS NOT NULL AND completed_at < ?`

	res, err := s.db.ExecContext(ctx, query,
		string(StatusCompleted), string(StatusFailed), string(StatusCancelled), before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete executions: %w", err)
	}

	return res.RowsAffected()
}

func decodeExecution(data []byte) (*WorkflowExecution, error) {
	var exec WorkflowExecution
	if err := json.Unmarshal(data, &exec); err != nil {
		return nil, fmt.Errorf("unmarshal execution: %w", err)
	}
	if exec.Results == nil {
		exec.Results = make(map[string]json.RawMessage)
	}

	return &exec, nil
}

func unixMilliOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UnixMilli()
}
