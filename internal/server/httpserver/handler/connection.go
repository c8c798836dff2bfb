package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/core/service"
)

// maxBodyBytes bounds request bodies on the connection endpoints.
const maxBodyBytes = 16 << 10

// sessionKey builds the session key from the path and the Origin header.
func sessionKey(r *http.Request) domain.SessionKey {
	return domain.SessionKey{
		SessionID: r.PathValue("sessionId"),
		Origin:    r.Header.Get("Origin"),
	}
}

// handleConnect handles POST /connections.
func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body", nil)
		return
	}

	// A wallet page connects on behalf of the dapp and names the dapp's
	// origin in the body.
	origin := req.Origin
	if origin == "" {
		origin = r.Header.Get("Origin")
	}

	res, err := h.connector.Connect(r.Context(), &service.ConnectRequest{
		VaultID:     req.VaultID,
		SessionID:   req.SessionID,
		Name:        req.Name,
		Origin:      origin,
		UserAddress: req.UserAddress,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	h.writeJSON(w, r, status, connectResponse(res.DApp, res.Created, res.Switched))
}

// handleDisconnect handles DELETE /connections/{sessionId}.
func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.connector.Disconnect(r.Context(), sessionKey(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, StateResponse{Connected: false})
}

// handleState handles GET /connections/{sessionId}/state.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	connected, err := h.connector.State(r.Context(), sessionKey(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, StateResponse{Connected: connected})
}

// handleAccounts handles GET /connections/{sessionId}/accounts.
func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.connector.Accounts(r.Context(), sessionKey(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, addrs)
}

// handleCurrentAccount handles GET /connections/{sessionId}/currentAccount.
func (h *Handler) handleCurrentAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := h.connector.CurrentAccount(r.Context(), sessionKey(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, addr)
}

// handleCurrentNetwork handles GET /connections/{sessionId}/currentNetwork.
func (h *Handler) handleCurrentNetwork(w http.ResponseWriter, r *http.Request) {
	provider, err := h.connector.CurrentNetwork(r.Context(), sessionKey(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, provider)
}

// handleCurrent handles GET /connections/{sessionId}. The Origin header is
// not consulted.
func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	vaultID, err := h.connector.Current(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, CurrentResponse{VaultID: vaultID})
}
