package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/config"
	"github.com/ekaya-inc/b1-query-assistant/pkg/metrics"
)

// ServiceName is reported by /ping and the MCP server.
const ServiceName = "b1-query-assistant"

// PingResponse contains service status and version information.
type PingResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Service          string `json:"service"`
	GoVersion        string `json:"go_version"`
	Hostname         string `json:"hostname"`
	Environment      string `json:"environment"`
	LLMProvider      string `json:"llm_provider"`
	LLMModel         string `json:"llm_model"`
	Datasource       string `json:"datasource"`
	ExecutionEnabled bool   `json:"execution_enabled"`
}

// HealthHandler handles health check, ping and metrics endpoints.
type HealthHandler struct {
	cfg              *config.Config
	executionEnabled bool
	logger           *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. executionEnabled reports
// whether a datasource executor was configured at start-up.
func NewHealthHandler(cfg *config.Config, executionEnabled bool, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{cfg: cfg, executionEnabled: executionEnabled, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
	mux.Handle("GET /metrics", metrics.Handler())
}

// Health handles GET /health requests with a plain "ok".
// It does not touch the model or the database.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
// Returns service, version and collaborator information.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	datasourceType := "none"
	if h.executionEnabled {
		datasourceType = h.cfg.Datasource.Type
	}

	response := PingResponse{
		Status:           "ok",
		Version:          h.cfg.Version,
		Service:          ServiceName,
		GoVersion:        runtime.Version(),
		Hostname:         hostname,
		Environment:      h.cfg.Env,
		LLMProvider:      h.cfg.LLM.Provider,
		LLMModel:         h.cfg.LLM.Model,
		Datasource:       datasourceType,
		ExecutionEnabled: h.executionEnabled,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
