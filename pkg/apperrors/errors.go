package apperrors

import "errors"

var (
	// ErrInvalidRequest is returned before any external call when the question is missing or blank.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrModelUnavailable wraps transport or provider failures from the language model.
	ErrModelUnavailable = errors.New("language model unavailable")

	// ErrMalformedModelOutput is returned when the model responded but its output failed validation.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrExecutorNotConfigured is reported in the result bundle when execution is requested
	// but no datasource was configured at start-up.
	ErrExecutorNotConfigured = errors.New("query execution is not configured")
)
