package caseflow

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("caseflow"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var pool *pgxpool.Pool
	for i := 0; i < 5; i++ {
		pool, err = pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
		}
		if err == nil {
			break
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := setupPostgresPool(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool, ""))
	// Migrations are idempotent.
	require.NoError(t, RunMigrations(ctx, pool, ""))

	testStoreContract(t, NewPostgresStore(pool, ""))
}

func TestPostgresStore_Tx(t *testing.T) {
	pool := setupPostgresPool(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool, "cases"))
	store := NewPostgresStore(pool, "cases")

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	txCtx := WithTx(ctx, tx)
	require.NoError(t, store.SaveExecution(txCtx,
		storedExecution("e-tx", "onboarding", "case-1", StatusRunning, 0)))

	got, err := store.GetExecution(txCtx, "e-tx")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)

	require.NoError(t, tx.Rollback(ctx))

	_, err = store.GetExecution(ctx, "e-tx")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestPostgresStore_Engine(t *testing.T) {
	pool := setupPostgresPool(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool, ""))
	store := NewPostgresStore(pool, "")

	engine := newTestEngine(t, WithEngineStore(store))
	engine.RegisterHandlerFunc("ok", okHandler(`{"done":true}`))

	tpl, err := NewBuilder("persisted").Step("a", "ok").Then("b", "ok").Build()
	require.NoError(t, err)
	require.NoError(t, engine.RegisterTemplate(tpl))

	exec := runToEnd(t, engine, "persisted", map[string]any{"customer": "c-1"})
	require.Equal(t, StatusCompleted, exec.Status)

	stored, err := store.GetExecution(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, 100.0, stored.Progress)
	assert.JSONEq(t, `{"done":true}`, string(stored.Results["b"]))
	assert.Equal(t, "c-1", stored.Context["customer"])
}
