package caseflow

import (
	"time"

	"github.com/rs/zerolog"
)

type EngineOption func(engine *Engine)

func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(engine *Engine) {
		engine.logger = logger
	}
}

// WithEngineStore sets where execution snapshots go. A Store (rather than a
// bare Persister) also serves GetStatus for evicted executions.
func WithEngineStore(store Persister) EngineOption {
	return func(engine *Engine) {
		engine.store = store
	}
}

func WithEnginePluginManager(pluginManager *PluginManager) EngineOption {
	return func(e *Engine) {
		e.pluginManager = pluginManager
	}
}

func WithEngineConditionRegistry(conditions *ConditionRegistry) EngineOption {
	return func(e *Engine) {
		e.conditions = conditions
	}
}

// WithEngineRetention sets how long terminal executions stay in memory.
func WithEngineRetention(retention time.Duration) EngineOption {
	return func(e *Engine) {
		e.retention = retention
	}
}

func WithEngineCleanupInterval(interval time.Duration) EngineOption {
	return func(e *Engine) {
		e.cleanupInterval = interval
	}
}

// WithEngineMaxParallelSteps lets up to n ready steps of one execution run at
// the same time. n <= 1 keeps strictly sequential execution.
func WithEngineMaxParallelSteps(n int) EngineOption {
	return func(e *Engine) {
		e.maxParallel = max(n, 1)
	}
}

func WithEngineIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		e.newID = gen
	}
}
