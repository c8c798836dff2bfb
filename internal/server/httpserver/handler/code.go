package handler

import (
	"net/http"

	"github.com/yndnr/vaultlink-go/internal/core/service"
)

// handleCreateConnectorCode handles
// POST /connections/{sessionId}/transaction/{vaultAddress}/{txId}.
func (h *Handler) handleCreateConnectorCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.connector.CreateConnectorCode(r.Context(), &service.ConnectorCodeRequest{
		SessionID:    r.PathValue("sessionId"),
		Origin:       r.Header.Get("Origin"),
		VaultAddress: r.PathValue("vaultAddress"),
		TxID:         r.PathValue("txId"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, code)
}

// handleLookupCode handles GET /codes/{code}.
func (h *Handler) handleLookupCode(w http.ResponseWriter, r *http.Request) {
	rc, err := h.connector.LookupCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, codeResponse(rc))
}
