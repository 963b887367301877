package caseflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultRetention       = time.Hour
	defaultCleanupInterval = time.Minute
)

// Engine owns handlers, templates and every live execution. Each execution is
// driven by its own goroutine.
type Engine struct {
	handlers      *HandlerRegistry
	templates     *TemplateCatalog
	conditions    *ConditionRegistry
	store         Persister
	pluginManager *PluginManager
	logger        zerolog.Logger

	retention       time.Duration
	cleanupInterval time.Duration
	maxParallel     int
	newID           func() string

	runs    map[string]*executionRun
	mu      sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEngine(opts ...EngineOption) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	engine := &Engine{
		templates:       NewTemplateCatalog(),
		conditions:      NewConditionRegistry(),
		store:           NewMemoryStore(),
		pluginManager:   NewPluginManager(),
		logger:          log.Logger.With().Str("component", "caseflow").Logger(),
		retention:       defaultRetention,
		cleanupInterval: defaultCleanupInterval,
		maxParallel:     1,
		newID:           uuid.NewString,
		runs:            make(map[string]*executionRun),
		ctx:             ctx,
		cancel:          cancel,
	}

	for _, opt := range opts {
		opt(engine)
	}

	if engine.cleanupInterval <= 0 {
		engine.cleanupInterval = defaultCleanupInterval
	}
	engine.handlers = NewHandlerRegistry(engine.logger)
	engine.pluginManager.SetLogger(engine.logger)

	engine.wg.Add(1)
	go engine.runJanitor()

	return engine
}

func (engine *Engine) RegisterHandler(handler StepHandler) {
	engine.handlers.Register(handler)
}

func (engine *Engine) RegisterHandlerFunc(
	name string,
	fn func(ctx context.Context, stepCtx StepContext) (json.RawMessage, error),
) {
	engine.handlers.RegisterFunc(name, fn)
}

func (engine *Engine) RegisterCondition(name string, fn ConditionFunc) {
	engine.conditions.Register(name, fn)
}

// RegisterTemplate adds tpl to the catalog, replacing a template of the same name.
// Step ids must be unique and non-empty; dependency references are only
// checked when an execution starts.
func (engine *Engine) RegisterTemplate(tpl *WorkflowTemplate) error {
	if err := engine.templates.Register(tpl); err != nil {
		return fmt.Errorf("register template: %w", err)
	}

	return nil
}

func (engine *Engine) GetTemplate(name string) (*WorkflowTemplate, error) {
	return engine.templates.Get(name)
}

func (engine *Engine) ListTemplates() []string {
	return engine.templates.Names()
}

func (engine *Engine) Handlers() *HandlerRegistry {
	return engine.handlers
}

// Start instantiates the named template and begins driving it in the
// background. It returns as soon as the execution is registered.
func (engine *Engine) Start(
	ctx context.Context,
	templateName string,
	caseID string,
	execCtx map[string]any,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tpl, err := engine.templates.Get(templateName)
	if err != nil {
		return "", fmt.Errorf("get template: %w", err)
	}

	exec := newExecution(engine.newID(), tpl, caseID, execCtx, time.Now())
	for stepID, refs := range exec.unresolvedDependencies() {
		engine.logger.Warn().
			Str(KeyExecutionID, exec.ID).
			Str(KeyTemplate, exec.TemplateName).
			Str(KeyStepID, stepID).
			Strs("unknown_dependencies", refs).
			Msg("step depends on steps that do not exist; it will never run")
	}

	run := newExecutionRun(exec)

	engine.mu.Lock()
	if engine.stopped {
		engine.mu.Unlock()

		return "", ErrEngineStopped
	}
	engine.runs[exec.ID] = run
	engine.wg.Add(1)
	engine.mu.Unlock()

	go func() {
		defer engine.wg.Done()
		engine.drive(engine.ctx, run)
	}()

	return exec.ID, nil
}

// GetStatus returns a deep snapshot of the execution. Evicted executions are
// read from the store when it supports reads.
func (engine *Engine) GetStatus(ctx context.Context, executionID string) (*WorkflowExecution, error) {
	if run, ok := engine.lookupRun(executionID); ok {
		return run.exec.Snapshot(), nil
	}

	reader, ok := engine.store.(ExecutionReader)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}

	exec, err := reader.GetExecution(ctx, executionID)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
		}

		return nil, fmt.Errorf("get execution: %w", err)
	}

	return exec, nil
}

// Cancel marks the execution CANCELLED right away. A step that is already
// running finishes its current attempt; nothing new is started afterwards.
func (engine *Engine) Cancel(ctx context.Context, executionID string) error {
	run, ok := engine.lookupRun(executionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}

	exec := run.exec
	exec.mu.Lock()
	if exec.Status.IsTerminal() {
		status := exec.Status
		exec.mu.Unlock()

		return fmt.Errorf("%w: %s is %s", ErrExecutionTerminal, executionID, status)
	}
	now := time.Now()
	exec.Status = StatusCancelled
	exec.CompletedAt = &now
	exec.UpdatedAt = now
	exec.mu.Unlock()

	run.signal()
	engine.persist(ctx, run)

	engine.execLogger(exec).Info().Str(KeyEvent, EventExecutionCancelled).Msg("execution cancelled")

	return nil
}

// Pause holds the execution before its next step. A running step is not interrupted.
func (engine *Engine) Pause(ctx context.Context, executionID string) error {
	run, ok := engine.lookupRun(executionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}

	exec := run.exec
	exec.mu.Lock()
	switch exec.Status {
	case StatusPaused:
		exec.mu.Unlock()

		return nil
	case StatusCompleted, StatusFailed, StatusCancelled:
		status := exec.Status
		exec.mu.Unlock()

		return fmt.Errorf("%w: %s is %s", ErrExecutionTerminal, executionID, status)
	}
	exec.Status = StatusPaused
	exec.UpdatedAt = time.Now()
	exec.mu.Unlock()

	engine.persist(ctx, run)
	engine.execLogger(exec).Info().Str(KeyEvent, EventExecutionPaused).Msg("execution paused")

	return nil
}

func (engine *Engine) Resume(ctx context.Context, executionID string) error {
	run, ok := engine.lookupRun(executionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}

	exec := run.exec
	exec.mu.Lock()
	if exec.Status.IsTerminal() {
		status := exec.Status
		exec.mu.Unlock()

		return fmt.Errorf("%w: %s is %s", ErrExecutionTerminal, executionID, status)
	}
	if exec.Status != StatusPaused {
		exec.mu.Unlock()

		return nil
	}
	exec.Status = StatusRunning
	exec.UpdatedAt = time.Now()
	exec.mu.Unlock()

	run.signal()
	engine.persist(ctx, run)
	engine.execLogger(exec).Info().Str(KeyEvent, EventExecutionResumed).Msg("execution resumed")

	return nil
}

// Wait blocks until the driver of the execution has finished and returns the
// final snapshot.
func (engine *Engine) Wait(ctx context.Context, executionID string) (*WorkflowExecution, error) {
	run, ok := engine.lookupRun(executionID)
	if !ok {
		return engine.GetStatus(ctx, executionID)
	}

	select {
	case <-run.done:
		return run.exec.Snapshot(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListExecutions returns the ids of executions still held in memory.
func (engine *Engine) ListExecutions() []string {
	engine.mu.RLock()
	defer engine.mu.RUnlock()

	ids := make([]string, 0, len(engine.runs))
	for id := range engine.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Shutdown stops accepting executions, cancels the running ones and waits up
// to timeout for their drivers to exit.
func (engine *Engine) Shutdown(timeout time.Duration) error {
	engine.mu.Lock()
	if engine.stopped {
		engine.mu.Unlock()

		return nil
	}
	engine.stopped = true
	engine.mu.Unlock()

	engine.cancel()

	done := make(chan struct{})
	go func() {
		engine.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown: timed out after %s waiting for executions", timeout)
	}
}

func (engine *Engine) lookupRun(executionID string) (*executionRun, bool) {
	engine.mu.RLock()
	defer engine.mu.RUnlock()

	run, ok := engine.runs[executionID]

	return run, ok
}

func (engine *Engine) runJanitor() {
	defer engine.wg.Done()

	ticker := time.NewTicker(engine.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-engine.ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := engine.evictExpired(now); evicted > 0 {
				engine.logger.Debug().Int("evicted", evicted).Msg("evicted finished executions")
			}
		}
	}
}

// evictExpired drops finished executions whose completion is older than the
// retention window.
func (engine *Engine) evictExpired(now time.Time) int {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	evicted := 0
	for id, run := range engine.runs {
		if !run.finished() {
			continue
		}

		completedAt := run.exec.completedAt()
		if completedAt == nil || now.Sub(*completedAt) < engine.retention {
			continue
		}

		delete(engine.runs, id)
		evicted++
	}

	return evicted
}

// persist writes a snapshot of the execution. Snapshots of one execution are
// taken and saved under the same lock, so the store sees them in order.
func (engine *Engine) persist(ctx context.Context, run *executionRun) {
	run.persistMu.Lock()
	defer run.persistMu.Unlock()

	snapshot := run.exec.Snapshot()
	if err := engine.store.SaveExecution(context.WithoutCancel(ctx), snapshot); err != nil {
		engine.execLogger(snapshot).Error().Err(err).Msg("failed to persist execution")
	}
}

func (engine *Engine) execLogger(exec *WorkflowExecution) *zerolog.Logger {
	logger := engine.logger.With().
		Str(KeyExecutionID, exec.ID).
		Str(KeyTemplate, exec.TemplateName).
		Str(KeyCaseID, exec.CaseID).
		Logger()

	return &logger
}
