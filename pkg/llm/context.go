package llm

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDKey contextKey = "llm_request_id"

// requestIDHeader is forwarded to providers so their logs can be correlated with ours.
const requestIDHeader = "X-Request-Id"

// WithRequestID returns a context carrying the request ID used for provider calls.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID attached with WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// contextAwareTransport copies the request ID from the request context into a header.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if id, ok := RequestIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}
	return base.RoundTrip(req)
}

// newHTTPClient builds the HTTP client shared by provider SDKs.
func newHTTPClient(timeoutSeconds int) *http.Client {
	client := &http.Client{Transport: &contextAwareTransport{base: http.DefaultTransport}}
	if timeoutSeconds > 0 {
		client.Timeout = secondsToDuration(timeoutSeconds)
	}
	return client
}
