// Package metrics exposes Prometheus collectors for HTTP traffic and query processing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "b1qa"

// Generation outcomes.
const (
	OutcomeSuccess          = "success"
	OutcomeInvalidRequest   = "invalid_request"
	OutcomeModelUnavailable = "model_unavailable"
	OutcomeMalformedOutput  = "malformed_model_output"
)

// Execution outcomes.
const (
	ExecutionSuccess = "success"
	ExecutionError   = "error"
	ExecutionSkipped = "skipped"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	queryGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_generations_total",
			Help:      "Natural-language questions processed, by generation outcome.",
		},
		[]string{"outcome"},
	)

	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_executions_total",
			Help:      "Generated queries by execution outcome.",
		},
		[]string{"datasource", "outcome"},
	)

	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model completion latency.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	dbQueryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Generated query execution latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"datasource"},
	)

	resultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_result_rows",
			Help:      "Rows returned per executed query.",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		queryGenerationsTotal,
		queryExecutionsTotal,
		llmRequestDurationSeconds,
		dbQueryDurationSeconds,
		resultRows,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveGeneration counts one processed question.
func ObserveGeneration(outcome string) {
	queryGenerationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveExecution counts one execution outcome for a datasource type.
func ObserveExecution(datasource, outcome string) {
	queryExecutionsTotal.WithLabelValues(datasource, outcome).Inc()
}

// ObserveLLMDuration records one completion call.
func ObserveLLMDuration(provider, model string, d time.Duration) {
	llmRequestDurationSeconds.WithLabelValues(provider, model).Observe(d.Seconds())
}

// ObserveDBDuration records one query execution and its row count.
func ObserveDBDuration(datasource string, d time.Duration, rows int) {
	dbQueryDurationSeconds.WithLabelValues(datasource).Observe(d.Seconds())
	if rows >= 0 {
		resultRows.Observe(float64(rows))
	}
}

// knownRoutes keeps the path label bounded.
var knownRoutes = map[string]bool{
	"/query":   true,
	"/health":  true,
	"/ping":    true,
	"/metrics": true,
	"/mcp":     true,
}

func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// HTTPMiddleware records request count and latency by route and status.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := routeLabel(r.URL.Path)
		status := strconv.Itoa(recorder.status)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
