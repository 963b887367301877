package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rom8726/caseflow/api"
)

var _ api.Plugin = (*Plugin)(nil)

// Deleter removes persisted terminal executions finished before a cutoff.
type Deleter interface {
	DeleteExecutionsBefore(ctx context.Context, before time.Time) (int64, error)
}

type Plugin struct {
	store Deleter
	now   func() time.Time
}

func New(store Deleter) *Plugin {
	return &Plugin{
		store: store,
		now:   time.Now,
	}
}

func (p *Plugin) Name() string { return "cleanup" }

func (p *Plugin) Description() string { return "Delete persisted executions that finished long ago" }

func (p *Plugin) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/cleanup", HandleCleanupExecutions(p.store, p.now))
}

func HandleCleanupExecutions(
	store Deleter,
	now func() time.Time,
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var cleanupReq CleanupRequest
		if err := json.NewDecoder(r.Body).Decode(&cleanupReq); err != nil {
			api.WriteErrorResponse(w, err, http.StatusBadRequest)

			return
		}

		if cleanupReq.RetentionHours <= 0 {
			err := errors.New("retention_hours must be greater than 0")
			api.WriteErrorResponse(w, err, http.StatusBadRequest)

			return
		}

		before := now().Add(-time.Duration(cleanupReq.RetentionHours) * time.Hour)

		deletedCount, err := store.DeleteExecutionsBefore(ctx, before)
		if err != nil {
			api.WriteErrorResponse(w, err, http.StatusInternalServerError)

			return
		}

		response := CleanupResponse{
			DeletedCount:   deletedCount,
			RetentionHours: cleanupReq.RetentionHours,
			Before:         before,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
