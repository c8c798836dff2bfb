package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/core/service"
	"github.com/yndnr/vaultlink-go/internal/telemetry/logger"
)

// ReadyFunc reports whether the backing stores can serve requests.
type ReadyFunc func(ctx context.Context) error

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	connector *service.ConnectorService
	ready     ReadyFunc
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New creates a new Handler. ready may be nil, in which case /ready
// always succeeds.
func New(connector *service.ConnectorService, ready ReadyFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		connector: connector,
		ready:     ready,
		logger:    logger,
		mux:       http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// Connection endpoints
	h.mux.HandleFunc("POST /connections", h.handleConnect)
	h.mux.HandleFunc("DELETE /connections/{sessionId}", h.handleDisconnect)
	h.mux.HandleFunc("GET /connections/{sessionId}", h.handleCurrent)
	h.mux.HandleFunc("GET /connections/{sessionId}/state", h.handleState)
	h.mux.HandleFunc("GET /connections/{sessionId}/accounts", h.handleAccounts)
	h.mux.HandleFunc("GET /connections/{sessionId}/currentAccount", h.handleCurrentAccount)
	h.mux.HandleFunc("GET /connections/{sessionId}/currentNetwork", h.handleCurrentNetwork)

	// Connector codes
	h.mux.HandleFunc("POST /connections/{sessionId}/transaction/{vaultAddress}/{txId}", h.handleCreateConnectorCode)
	h.mux.HandleFunc("GET /codes/{code}", h.handleLookupCode)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID prefers the id bound by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
			h.writeError(w, r, status, de.Code, de.Message, nil)
			return
		}
		h.writeError(w, r, status, de.Code, de.Message, detailsOf(de))
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

func detailsOf(de *domain.DomainError) any {
	if de.Details == "" {
		return nil
	}
	return de.Details
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "VL-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
