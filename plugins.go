package caseflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type PluginPriority int

const (
	PriorityLow    PluginPriority = 0
	PriorityNormal PluginPriority = 50
	PriorityHigh   PluginPriority = 100
)

// Plugin represents a lifecycle hook system for executions.
// Hooks receive snapshots; mutating them has no effect on the execution.
type Plugin interface {
	// Name returns unique plugin identifier
	Name() string

	// Priority determines execution order (higher = earlier)
	Priority() PluginPriority

	// Lifecycle hooks
	OnExecutionStart(ctx context.Context, exec *WorkflowExecution) error
	OnExecutionComplete(ctx context.Context, exec *WorkflowExecution) error
	OnExecutionFailed(ctx context.Context, exec *WorkflowExecution) error
	OnExecutionCancelled(ctx context.Context, exec *WorkflowExecution) error
	OnStepStart(ctx context.Context, exec *WorkflowExecution, step *StepInstance) error
	OnStepComplete(ctx context.Context, exec *WorkflowExecution, step *StepInstance) error
	OnStepRetry(ctx context.Context, exec *WorkflowExecution, step *StepInstance, err error) error
	OnStepFailed(ctx context.Context, exec *WorkflowExecution, step *StepInstance, err error) error
	OnStepSkipped(ctx context.Context, exec *WorkflowExecution, step *StepInstance) error
}

// BasePlugin provides default no-op implementations
type BasePlugin struct {
	name     string
	priority PluginPriority
}

func NewBasePlugin(name string, priority PluginPriority) BasePlugin {
	return BasePlugin{name: name, priority: priority}
}

func (p BasePlugin) Name() string             { return p.name }
func (p BasePlugin) Priority() PluginPriority { return p.priority }
func (p BasePlugin) OnExecutionStart(context.Context, *WorkflowExecution) error {
	return nil
}
func (p BasePlugin) OnExecutionComplete(context.Context, *WorkflowExecution) error {
	return nil
}
func (p BasePlugin) OnExecutionFailed(context.Context, *WorkflowExecution) error {
	return nil
}
func (p BasePlugin) OnExecutionCancelled(context.Context, *WorkflowExecution) error {
	return nil
}
func (p BasePlugin) OnStepStart(context.Context, *WorkflowExecution, *StepInstance) error { return nil }
func (p BasePlugin) OnStepComplete(context.Context, *WorkflowExecution, *StepInstance) error {
	return nil
}
func (p BasePlugin) OnStepRetry(context.Context, *WorkflowExecution, *StepInstance, error) error {
	return nil
}
func (p BasePlugin) OnStepFailed(context.Context, *WorkflowExecution, *StepInstance, error) error {
	return nil
}
func (p BasePlugin) OnStepSkipped(context.Context, *WorkflowExecution, *StepInstance) error {
	return nil
}

// PluginManager manages plugin lifecycle
type PluginManager struct {
	plugins []Plugin
	logger  zerolog.Logger
	mu      sync.RWMutex
}

func NewPluginManager() *PluginManager {
	return &PluginManager{
		plugins: make([]Plugin, 0),
		logger:  log.Logger.With().Str("component", "plugins").Logger(),
	}
}

func (pm *PluginManager) SetLogger(logger zerolog.Logger) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.logger = logger
}

func (pm *PluginManager) Register(plugin Plugin) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.plugins = append(pm.plugins, plugin)

	sort.SliceStable(pm.plugins, func(i, j int) bool {
		return pm.plugins[i].Priority() > pm.plugins[j].Priority()
	})
}

func (pm *PluginManager) Plugins() []Plugin {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return append([]Plugin(nil), pm.plugins...)
}

func (pm *PluginManager) ExecuteExecutionStart(ctx context.Context, exec *WorkflowExecution) {
	pm.notify("execution start", func(plugin Plugin) error {
		return plugin.OnExecutionStart(ctx, exec)
	})
}

func (pm *PluginManager) ExecuteExecutionComplete(ctx context.Context, exec *WorkflowExecution) {
	pm.notify("execution complete", func(plugin Plugin) error {
		return plugin.OnExecutionComplete(ctx, exec)
	})
}

func (pm *PluginManager) ExecuteExecutionFailed(ctx context.Context, exec *WorkflowExecution) {
	pm.notify("execution failed", func(plugin Plugin) error {
		return plugin.OnExecutionFailed(ctx, exec)
	})
}

func (pm *PluginManager) ExecuteExecutionCancelled(ctx context.Context, exec *WorkflowExecution) {
	pm.notify("execution cancelled", func(plugin Plugin) error {
		return plugin.OnExecutionCancelled(ctx, exec)
	})
}

// ExecuteStepStart stops at the first plugin error; the engine treats it as a
// failed attempt.
func (pm *PluginManager) ExecuteStepStart(ctx context.Context, exec *WorkflowExecution, step *StepInstance) error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, plugin := range pm.plugins {
		if err := plugin.OnStepStart(ctx, exec, step); err != nil {
			return fmt.Errorf("plugin %s failed: %w", plugin.Name(), err)
		}
	}

	return nil
}

func (pm *PluginManager) ExecuteStepComplete(ctx context.Context, exec *WorkflowExecution, step *StepInstance) {
	pm.notify("step complete", func(plugin Plugin) error {
		return plugin.OnStepComplete(ctx, exec, step)
	})
}

func (pm *PluginManager) ExecuteStepRetry(ctx context.Context, exec *WorkflowExecution, step *StepInstance, err error) {
	pm.notify("step retry", func(plugin Plugin) error {
		return plugin.OnStepRetry(ctx, exec, step, err)
	})
}

func (pm *PluginManager) ExecuteStepFailed(ctx context.Context, exec *WorkflowExecution, step *StepInstance, err error) {
	pm.notify("step failed", func(plugin Plugin) error {
		return plugin.OnStepFailed(ctx, exec, step, err)
	})
}

func (pm *PluginManager) ExecuteStepSkipped(ctx context.Context, exec *WorkflowExecution, step *StepInstance) {
	pm.notify("step skipped", func(plugin Plugin) error {
		return plugin.OnStepSkipped(ctx, exec, step)
	})
}

func (pm *PluginManager) notify(hook string, call func(plugin Plugin) error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, plugin := range pm.plugins {
		if err := call(plugin); err != nil {
			pm.logger.Error().Err(err).Str(KeyPlugin, plugin.Name()).Msgf("plugin error on %s", hook)
		}
	}
}
