package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rom8726/caseflow"
)

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name   string
		cfg    StoreConfig
		cached bool
	}{
		{name: "memory", cfg: StoreConfig{Driver: "memory"}},
		{name: "memory cached", cfg: StoreConfig{Driver: "memory", CacheSize: 10}, cached: true},
		{name: "sqlite", cfg: StoreConfig{Driver: "sqlite"}},
		{name: "badger in memory", cfg: StoreConfig{Driver: "badger", CacheSize: 10}, cached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeStore, err := openStore(context.Background(), tt.cfg, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(closeStore)

			_, isCached := store.(*caseflow.CachedStore)
			assert.Equal(t, tt.cached, isCached)

			_, err = store.GetExecution(context.Background(), "missing")
			assert.ErrorIs(t, err, caseflow.ErrEntityNotFound)
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), StoreConfig{Driver: "mongo"}, zerolog.Nop())
	assert.Error(t, err)
}
