package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/apperrors"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
	"github.com/ekaya-inc/b1-query-assistant/pkg/services"
)

// maxQueryBodyBytes bounds the POST /query body.
const maxQueryBodyBytes = 1 << 20

// QueryHandler serves the natural-language query endpoint.
type QueryHandler struct {
	queryService services.QueryService
	logger       *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queryService services.QueryService, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{queryService: queryService, logger: logger.Named("query-handler")}
}

// RegisterRoutes registers the query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", h.Query)
}

// Query handles POST /query.
// A generated query is answered with 200 even when its execution failed;
// the failure is carried in the bundle's error field.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	bundle, err := h.queryService.ProcessQuery(r.Context(), req.Query, req.ExecuteQuery)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, bundle); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

func (h *QueryHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, apperrors.ErrModelUnavailable):
		h.writeError(w, http.StatusBadGateway, ErrCodeModelUnavailable, err.Error())
	case errors.Is(err, apperrors.ErrMalformedModelOutput):
		h.writeError(w, http.StatusBadGateway, ErrCodeMalformedModelOutput, err.Error())
	default:
		h.logger.Error("Unexpected query failure", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}

func (h *QueryHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
