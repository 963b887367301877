package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rom8726/caseflow"
)

// registerBuiltinHandlers adds the handlers every deployment gets, so YAML
// templates can be exercised without custom code.
func registerBuiltinHandlers(engine *caseflow.Engine) {
	engine.RegisterHandlerFunc("noop", noopHandler)
	engine.RegisterHandlerFunc("echo", echoHandler)
	engine.RegisterHandlerFunc("sleep", sleepHandler)
	engine.RegisterHandlerFunc("fail", failHandler)
}

func noopHandler(context.Context, caseflow.StepContext) (json.RawMessage, error) {
	return json.RawMessage(`{"success":true}`), nil
}

// echoHandler returns the step parameters together with the case context.
func echoHandler(_ context.Context, stepCtx caseflow.StepContext) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"step":       stepCtx.StepID(),
		"attempt":    stepCtx.Attempt(),
		"parameters": stepCtx.CloneParameters(),
		"context":    stepCtx.CloneContext(),
	})
}

// sleepHandler waits for the "duration" parameter or until the attempt is
// cancelled.
func sleepHandler(ctx context.Context, stepCtx caseflow.StepContext) (json.RawMessage, error) {
	raw, ok := stepCtx.GetParameterAsString("duration")
	if !ok {
		return nil, errors.New("missing parameter \"duration\"")
	}

	duration, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return json.Marshal(map[string]any{"slept": duration.String()})
}

func failHandler(_ context.Context, stepCtx caseflow.StepContext) (json.RawMessage, error) {
	msg, ok := stepCtx.GetParameterAsString("message")
	if !ok || msg == "" {
		msg = "step failed on purpose"
	}

	return nil, errors.New(msg)
}
