package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
	}{
		{"invalid request", http.StatusBadRequest, ErrCodeInvalidRequest, "query must not be empty"},
		{"model unavailable", http.StatusBadGateway, ErrCodeModelUnavailable, "connection failed"},
		{"internal error", http.StatusInternalServerError, ErrCodeInternal, "something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			require.NoError(t, ErrorResponse(w, tt.statusCode, tt.errorCode, tt.message))

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body ErrorBody
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.errorCode, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": 2}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","count":2}`, w.Body.String())
}

func TestWriteJSON_EncodingFailureIsInternalError(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]any{"ratio": math.NaN()})
	require.Error(t, err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, ErrCodeInternal, body.Error)
}
