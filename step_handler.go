package caseflow

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
)

type StepHandler interface {
	Execute(ctx context.Context, stepCtx StepContext) (json.RawMessage, error)
	Name() string
}

type StepContext interface {
	ExecutionID() string
	CaseID() string
	StepID() string
	Attempt() int
	CloneContext() map[string]any
	CloneParameters() map[string]any
	CloneResults() map[string]json.RawMessage
	GetParameter(key string) (any, bool)
	GetParameterAsString(key string) (string, bool)
	GetContextValue(key string) (any, bool)
	GetResult(stepID string) (json.RawMessage, bool)
}

// HandlerFunc adapts a plain function to StepHandler.
type HandlerFunc struct {
	name string
	fn   func(ctx context.Context, stepCtx StepContext) (json.RawMessage, error)
}

func NewHandlerFunc(
	name string,
	fn func(ctx context.Context, stepCtx StepContext) (json.RawMessage, error),
) *HandlerFunc {
	return &HandlerFunc{name: name, fn: fn}
}

func (h *HandlerFunc) Name() string {
	return h.name
}

func (h *HandlerFunc) Execute(ctx context.Context, stepCtx StepContext) (json.RawMessage, error) {
	return h.fn(ctx, stepCtx)
}

type noPanicStepHandler struct {
	handler StepHandler
}

func wrapProcessPanicHandler(handler StepHandler) *noPanicStepHandler {
	if wrapped, ok := handler.(*noPanicStepHandler); ok {
		return wrapped
	}

	return &noPanicStepHandler{handler: handler}
}

func (handler *noPanicStepHandler) Execute(
	ctx context.Context,
	stepCtx StepContext,
) (out json.RawMessage, errRes error) {
	defer func() {
		if r := recover(); r != nil {
			errRes = fmt.Errorf("panic in handler %q: %v\n%s", handler.Name(), r, debug.Stack())
		}
	}()

	return handler.handler.Execute(ctx, stepCtx)
}

func (handler *noPanicStepHandler) Name() string {
	return handler.handler.Name()
}
