package caseflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// HandlerRegistry maps handler names to step handlers. Safe for concurrent use.
type HandlerRegistry struct {
	handlers map[string]StepHandler
	logger   zerolog.Logger
	mu       sync.RWMutex
}

func NewHandlerRegistry(logger zerolog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]StepHandler),
		logger:   logger,
	}
}

// Register stores handler under handler.Name(), replacing any previous registration.
func (r *HandlerRegistry) Register(handler StepHandler) {
	name := handler.Name()

	r.mu.Lock()
	_, replaced := r.handlers[name]
	r.handlers[name] = wrapProcessPanicHandler(handler)
	r.mu.Unlock()

	if replaced {
		r.logger.Warn().Str(KeyHandler, name).Msg("handler registration replaced")
	}
}

func (r *HandlerRegistry) RegisterFunc(
	name string,
	fn func(ctx context.Context, stepCtx StepContext) (json.RawMessage, error),
) {
	r.Register(NewHandlerFunc(name, fn))
}

func (r *HandlerRegistry) Lookup(name string) (StepHandler, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}

	return handler, nil
}

func (r *HandlerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers)
}
