package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rom8726/caseflow"
)

func RegisterCoreRoutes(mux *http.ServeMux, engine Engine) {
	// Executions
	mux.HandleFunc("POST /api/executions", HandleStartExecution(engine))
	mux.HandleFunc("GET /api/executions", HandleListExecutions(engine))
	mux.HandleFunc("GET /api/executions/{id}", HandleGetExecution(engine))
	mux.HandleFunc("GET /api/executions/{id}/steps", HandleGetExecutionSteps(engine))
	mux.HandleFunc("POST /api/executions/{id}/cancel", HandleExecutionControl(engine.Cancel, engine))
	mux.HandleFunc("POST /api/executions/{id}/pause", HandleExecutionControl(engine.Pause, engine))
	mux.HandleFunc("POST /api/executions/{id}/resume", HandleExecutionControl(engine.Resume, engine))

	// Templates
	mux.HandleFunc("GET /api/templates", HandleListTemplates(engine))
	mux.HandleFunc("POST /api/templates", HandleRegisterTemplate(engine))
	mux.HandleFunc("GET /api/templates/{name}", HandleGetTemplate(engine))
	mux.HandleFunc("GET /api/templates/{name}/graph", HandleGetTemplateGraph(engine))
}

// RegisterHistoryRoutes exposes persisted executions, including evicted ones.
func RegisterHistoryRoutes(mux *http.ServeMux, reader caseflow.ExecutionReader) {
	mux.HandleFunc("GET /api/history", HandleListHistory(reader))
}

func HandleStartExecution(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartExecutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteErrorResponse(w, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)

			return
		}

		if req.Template == "" {
			WriteErrorResponse(w, errors.New("template is required"), http.StatusBadRequest)

			return
		}

		id, err := engine.Start(r.Context(), req.Template, req.CaseID, req.Context)
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		writeJSON(w, http.StatusAccepted, StartExecutionResponse{ExecutionID: id})
	}
}

func HandleListExecutions(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ExecutionListResponse{Executions: engine.ListExecutions()})
	}
}

func HandleGetExecution(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		exec, err := engine.GetStatus(r.Context(), r.PathValue("id"))
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, exec)
	}
}

func HandleGetExecutionSteps(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		exec, err := engine.GetStatus(r.Context(), r.PathValue("id"))
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, exec.Steps)
	}
}

// HandleExecutionControl wraps Cancel, Pause or Resume. The response carries
// the execution snapshot taken right after the call.
func HandleExecutionControl(
	control func(ctx context.Context, executionID string) error,
	engine Engine,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if err := control(r.Context(), id); err != nil {
			WriteEngineError(w, err)

			return
		}

		exec, err := engine.GetStatus(r.Context(), id)
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, exec)
	}
}

func HandleListTemplates(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, TemplateListResponse{Templates: engine.ListTemplates()})
	}
}

func HandleRegisterTemplate(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var dto TemplateDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			WriteErrorResponse(w, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)

			return
		}

		tpl, err := dto.ToTemplate()
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		if err := engine.RegisterTemplate(tpl); err != nil {
			WriteEngineError(w, err)

			return
		}

		writeJSON(w, http.StatusCreated, TemplateFromModel(tpl))
	}
}

func HandleGetTemplate(engine Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := engine.GetTemplate(r.PathValue("name"))
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, TemplateFromModel(tpl))
	}
}

func HandleGetTemplateGraph(engine Engine) func(http.ResponseWriter, *http.Request) {
	visualizer := caseflow.NewVisualizer()

	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := engine.GetTemplate(r.PathValue("name"))
		if err != nil {
			WriteEngineError(w, err)

			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(visualizer.RenderGraph(tpl)))
	}
}

func HandleListHistory(reader caseflow.ExecutionReader) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		filter := caseflow.ExecutionFilter{
			TemplateName: query.Get("template"),
			CaseID:       query.Get("case_id"),
			Status:       caseflow.ExecutionStatus(query.Get("status")),
		}
		if limit := query.Get("limit"); limit != "" {
			n, err := strconv.Atoi(limit)
			if err != nil || n < 0 {
				WriteErrorResponse(w, fmt.Errorf("invalid limit %q", limit), http.StatusBadRequest)

				return
			}
			filter.Limit = n
		}

		execs, err := reader.ListExecutions(r.Context(), filter)
		if err != nil {
			WriteErrorResponse(w, fmt.Errorf("list executions: %w", err), http.StatusInternalServerError)

			return
		}
		if execs == nil {
			execs = []*caseflow.WorkflowExecution{}
		}

		writeJSON(w, http.StatusOK, execs)
	}
}

func HandleGetStats(monitor caseflow.Monitor) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := monitor.GetTemplateStats(r.Context())
		if err != nil {
			WriteErrorResponse(w, fmt.Errorf("fetch template stats: %w", err), http.StatusInternalServerError)

			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}
