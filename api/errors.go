package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rom8726/caseflow"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func WriteErrorResponse(writer http.ResponseWriter, err error, statusCode int) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)

	resp := ErrorResponse{Message: err.Error()}
	_ = json.NewEncoder(writer).Encode(resp)
}

// WriteEngineError maps engine sentinels to HTTP status codes.
func WriteEngineError(writer http.ResponseWriter, err error) {
	WriteErrorResponse(writer, err, statusFromError(err))
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, caseflow.ErrTemplateNotFound),
		errors.Is(err, caseflow.ErrExecutionNotFound),
		errors.Is(err, caseflow.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, caseflow.ErrExecutionTerminal):
		return http.StatusConflict
	case errors.Is(err, caseflow.ErrInvalidTemplate):
		return http.StatusBadRequest
	case errors.Is(err, caseflow.ErrEngineStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(writer http.ResponseWriter, statusCode int, v any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(v)
}
