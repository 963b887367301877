package caseflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

var _ Store = (*PostgresStore)(nil)

// DBExecutor is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db    DBExecutor
	table string
}

// NewPostgresStore stores executions in <schema>.workflow_executions. Run
// RunMigrations with the same schema first.
func NewPostgresStore(pool *pgxpool.Pool, schema string) *PostgresStore {
	if schema == "" {
		schema = DefaultSchema
	}

	return &PostgresStore{
		db:    pool,
		table: pq.QuoteIdentifier(schema) + ".workflow_executions",
	}
}

func (store *PostgresStore) getExecutor(ctx context.Context) DBExecutor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}

	return store.db
}

func (store *PostgresStore) SaveExecution(ctx context.Context, exec *WorkflowExecution) error {
	executor := store.getExecutor(ctx)
	snapshot := exec.Snapshot()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	query := `
INSERT INTO ` + store.table + ` (id, template_name, case_id, status, progress, error, snapshot,
	created_at, started_at, completed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
	progress = EXCLUDED.progress,
	error = EXCLUDED.error,
	snapshot = EXCLUDED.snapshot,
	started_at = EXCLUDED.started_at,
	completed_at = EXCLUDED.completed_at,
	updated_at = EXCLUDED.updated_at`

	_, err = executor.Exec(ctx, query,
		snapshot.ID, snapshot.TemplateName, snapshot.CaseID, string(snapshot.Status),
		snapshot.Progress, snapshot.Error, data,
		snapshot.CreatedAt, snapshot.StartedAt, snapshot.CompletedAt, snapshot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert execution: %w", err)
	}

	return nil
}

func (store *PostgresStore) GetExecution(ctx context.Context, id string) (*WorkflowExecution, error) {
	executor := store.getExecutor(ctx)

	var data []byte
	err := executor.QueryRow(ctx, `SELECT snapshot FROM `+store.table+` WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntityNotFound
		}

		return nil, fmt.Errorf("select execution: %w", err)
	}

	return decodeExecution(data)
}

func (store *PostgresStore) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*WorkflowExecution, error) {
	executor := store.getExecutor(ctx)

	var (
		where []string
		args  []any
	)
	addArg := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.TemplateName != "" {
		addArg("template_name = $%d", filter.TemplateName)
	}
	if filter.CaseID != "" {
		addArg("case_id = $%d", filter.CaseID)
	}
	if filter.Status != "" {
		addArg("status = $%d", string(filter.Status))
	}

	query := `SELECT snapshot FROM ` + store.table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select executions: %w", err)
	}
	defer rows.Close()

	var res []*WorkflowExecution
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}

		exec, err := decodeExecution(data)
		if err != nil {
			return nil, err
		}
		res = append(res, exec)
	}

	return res, rows.Err()
}

func (store *PostgresStore) DeleteExecutionsBefore(ctx context.Context, before time.Time) (int64, error) {
	executor := store.getExecutor(ctx)

	query := `
DELETE FROM ` + store.table + `
WHERE status IN ('completed', 'failed', 'cancelled')
	AND completed_at IS NOT NULL
	AND completed_at < $1`

	tag, err := executor.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete executions: %w", err)
	}

	return tag.RowsAffected(), nil
}
