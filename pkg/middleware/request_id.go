package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/ekaya-inc/b1-query-assistant/pkg/llm"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// Incoming IDs are accepted only if they are short and header-safe.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID assigns every request an ID, echoes it in the response and stores it
// in the context, from where the LLM client forwards it to the provider.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(llm.WithRequestID(r.Context(), id)))
	})
}
