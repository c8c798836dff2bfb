package handler

import (
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ConnectRequest is the request body for POST /connections.
// A body origin takes precedence over the Origin header.
type ConnectRequest struct {
	VaultID     string `json:"vaultId"`
	SessionID   string `json:"sessionId"`
	Name        string `json:"name,omitempty"`
	Origin      string `json:"origin,omitempty"`
	UserAddress string `json:"userAddress,omitempty"`
}

// ConnectResponse is the response body for POST /connections.
type ConnectResponse struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"sessionId"`
	Origin       string            `json:"origin"`
	Name         string            `json:"name,omitempty"`
	Vaults       []domain.VaultRef `json:"vaults"`
	CurrentVault domain.VaultRef   `json:"currentVault"`
	Created      bool              `json:"created"`
	Switched     bool              `json:"switched"`
}

func connectResponse(d *domain.DApp, created, switched bool) ConnectResponse {
	return ConnectResponse{
		ID:           d.ID,
		SessionID:    d.SessionID,
		Origin:       d.Origin,
		Name:         d.Name,
		Vaults:       d.Vaults,
		CurrentVault: d.CurrentVault,
		Created:      created,
		Switched:     switched,
	}
}

// StateResponse is the response body for GET /connections/{sessionId}/state.
type StateResponse struct {
	Connected bool `json:"connected"`
}

// CurrentResponse is the response body for GET /connections/{sessionId}.
type CurrentResponse struct {
	VaultID string `json:"vaultId"`
}

// CodeResponse is the response body for GET /codes/{code}.
type CodeResponse struct {
	Code      string                     `json:"code"`
	Type      domain.RecoverCodeType     `json:"type"`
	Origin    string                     `json:"origin"`
	CreatedAt time.Time                  `json:"createdAt"`
	ValidAt   time.Time                  `json:"validAt"`
	Metadata  domain.RecoverCodeMetadata `json:"metadata"`
}

func codeResponse(rc *domain.RecoverCode) CodeResponse {
	return CodeResponse{
		Code:      rc.Code,
		Type:      rc.Type,
		Origin:    rc.Origin,
		CreatedAt: rc.CreatedAt,
		ValidAt:   rc.ValidAt,
		Metadata:  rc.Metadata,
	}
}
