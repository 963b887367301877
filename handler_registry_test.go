package caseflow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry(zerolog.Nop())

	handler := NewMockStepHandler(t)
	handler.EXPECT().Name().Return("verify")
	handler.EXPECT().Execute(mock.Anything, mock.Anything).Return(json.RawMessage(`"ok"`), nil).Once()

	registry.Register(handler)
	registry.RegisterFunc("collect", func(context.Context, StepContext) (json.RawMessage, error) {
		return nil, nil
	})

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []string{"collect", "verify"}, registry.Names())

	got, err := registry.Lookup("verify")
	require.NoError(t, err)
	assert.Equal(t, "verify", got.Name())

	out, err := got.Execute(context.Background(), &executionContext{})
	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(out))

	_, err = registry.Lookup("missing")
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestHandlerRegistry_ReplaceAndRecoverPanic(t *testing.T) {
	registry := NewHandlerRegistry(zerolog.Nop())

	registry.RegisterFunc("h", func(context.Context, StepContext) (json.RawMessage, error) {
		return json.RawMessage(`1`), nil
	})
	registry.RegisterFunc("h", func(context.Context, StepContext) (json.RawMessage, error) {
		panic("kaboom")
	})
	assert.Equal(t, 1, registry.Len())

	handler, err := registry.Lookup("h")
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), &executionContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `panic in handler "h": kaboom`)
}
