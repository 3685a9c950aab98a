package handlers

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in the "error" field of JSON error bodies.
const (
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeModelUnavailable     = "model_unavailable"
	ErrCodeMalformedModelOutput = "malformed_model_output"
	ErrCodeInternal             = "internal_error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ErrorBody{Error: errorCode, Message: message})
}

// WriteJSON encodes data before anything is written, so an encoding failure
// becomes a 500 error body instead of a truncated response. The encoding
// error is returned.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to encode response")
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err = w.Write(append(body, '\n'))
	return err
}
