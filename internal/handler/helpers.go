package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"

	"go.uber.org/zap"
)

const (
	msgUpstreamFailure = "failed to fetch CRM data"
	msgInternalError   = "internal server error"
	msgInvalidRequest  = "invalid request"
)

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, domain.ErrorResponse{Error: msg, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses. Every upstream
// failure collapses to 502 regardless of cause.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var transport *domain.TransportError
	var validation *domain.ErrValidation

	switch {
	case errors.As(err, &transport):
		logger.Error("upstream failure",
			zap.Int("status_code", transport.StatusCode),
			zap.Bool("timeout", transport.Timeout),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, msgUpstreamFailure, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, msgInvalidRequest, err.Error())
	case errors.Is(err, context.Canceled):
		logger.Debug("request cancelled by client", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, msgInternalError, err.Error())
	default:
		logger.Error("unexpected error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError, err.Error())
	}
}
