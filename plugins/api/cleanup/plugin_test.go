package cleanup

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rom8726/caseflow"
)

func TestPlugin_Name(t *testing.T) {
	plugin := New(nil)
	assert.Equal(t, "cleanup", plugin.Name())
	assert.NotEmpty(t, plugin.Description())
}

func TestHandleCleanupExecutions_Success(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	expectedBefore := now.Add(-48 * time.Hour)

	mockStore := caseflow.NewMockStore(t)
	mockStore.EXPECT().
		DeleteExecutionsBefore(mock.Anything, expectedBefore).
		Return(int64(42), nil)

	jsonBody, _ := json.Marshal(CleanupRequest{RetentionHours: 48})
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	HandleCleanupExecutions(mockStore, func() time.Time { return now })(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response CleanupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, int64(42), response.DeletedCount)
	assert.Equal(t, 48, response.RetentionHours)
	assert.True(t, expectedBefore.Equal(response.Before))
}

func TestHandleCleanupExecutions_InvalidRetention(t *testing.T) {
	mockStore := caseflow.NewMockStore(t)

	jsonBody, _ := json.Marshal(CleanupRequest{RetentionHours: 0})
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", bytes.NewBuffer(jsonBody))
	w := httptest.NewRecorder()

	HandleCleanupExecutions(mockStore, time.Now)(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCleanupExecutions_BadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()

	HandleCleanupExecutions(caseflow.NewMockStore(t), time.Now)(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCleanupExecutions_StoreError(t *testing.T) {
	mockStore := caseflow.NewMockStore(t)
	mockStore.EXPECT().
		DeleteExecutionsBefore(mock.Anything, mock.Anything).
		Return(int64(0), errors.New("store error"))

	jsonBody, _ := json.Marshal(CleanupRequest{RetentionHours: 24})
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", bytes.NewBuffer(jsonBody))
	w := httptest.NewRecorder()

	HandleCleanupExecutions(mockStore, time.Now)(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPlugin_RegisterRoutes(t *testing.T) {
	store := caseflow.NewMemoryStore()

	mux := http.NewServeMux()
	New(store).RegisterRoutes(mux)

	jsonBody, _ := json.Marshal(CleanupRequest{RetentionHours: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", bytes.NewBuffer(jsonBody))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response CleanupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, int64(0), response.DeletedCount)
}
