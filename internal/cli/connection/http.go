package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds one request.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Connection is a dapp session as returned by the server.
type Connection struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"sessionId"`
	Origin       string            `json:"origin"`
	Name         string            `json:"name,omitempty"`
	Vaults       []domain.VaultRef `json:"vaults"`
	CurrentVault domain.VaultRef   `json:"currentVault"`
	Created      bool              `json:"created"`
	Switched     bool              `json:"switched"`
}

// ConnectRequest binds a vault to a session.
type ConnectRequest struct {
	VaultID     string `json:"vaultId"`
	SessionID   string `json:"sessionId"`
	Name        string `json:"name,omitempty"`
	UserAddress string `json:"userAddress,omitempty"`
}

// Code is an issued or looked-up recover code. Fields absent from a reply
// stay zero.
type Code struct {
	Code      string                     `json:"code"`
	Type      string                     `json:"type,omitempty"`
	Origin    string                     `json:"origin,omitempty"`
	CreatedAt *time.Time                 `json:"createdAt,omitempty"`
	ValidAt   time.Time                  `json:"validAt"`
	TxBlocked *bool                      `json:"tx_blocked,omitempty"`
	Metadata  domain.RecoverCodeMetadata `json:"metadata"`
}

// Client provides HTTP communication with the server.
type Client struct {
	baseURL string
	origin  string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTLSConfig sets the TLS configuration for https servers.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.client.Transport = &http.Transport{TLSClientConfig: cfg}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithOrigin sets the Origin header identifying the dapp.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// NewClient creates a client. server without a scheme is treated as http.
func NewClient(server string, opts ...Option) *Client {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Connect binds a vault to the session of the client's origin.
func (c *Client) Connect(ctx context.Context, req *ConnectRequest) (*Connection, error) {
	var out Connection
	if err := c.do(ctx, http.MethodPost, "/connections", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Disconnect deletes the session.
func (c *Client) Disconnect(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID), nil, nil)
}

// State reports whether the session exists.
func (c *Client) State(ctx context.Context, sessionID string) (bool, error) {
	var out struct {
		Connected bool `json:"connected"`
	}
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "state"), nil, &out)
	return out.Connected, err
}

// Accounts lists the vault addresses bound to the session.
func (c *Client) Accounts(ctx context.Context, sessionID string) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "accounts"), nil, &out)
	return out, err
}

// CurrentAccount returns the current vault address.
func (c *Client) CurrentAccount(ctx context.Context, sessionID string) (string, error) {
	var out string
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "currentAccount"), nil, &out)
	return out, err
}

// CurrentNetwork returns the current vault's network provider.
func (c *Client) CurrentNetwork(ctx context.Context, sessionID string) (string, error) {
	var out string
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "currentNetwork"), nil, &out)
	return out, err
}

// Current returns the current vault id of the most recently updated
// session with this id, across origins.
func (c *Client) Current(ctx context.Context, sessionID string) (string, error) {
	var out struct {
		VaultID string `json:"vaultId"`
	}
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID), nil, &out)
	return out.VaultID, err
}

// IssueCode requests a connector code for a transaction.
func (c *Client) IssueCode(ctx context.Context, sessionID, vaultAddress, txID string) (*Code, error) {
	var out Code
	path := sessionPath(sessionID, "transaction", vaultAddress, txID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupCode fetches a code. Expired codes return an *APIError.
func (c *Client) LookupCode(ctx context.Context, code string) (*Code, error) {
	var out Code
	if err := c.do(ctx, http.MethodGet, "/codes/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func sessionPath(sessionID string, rest ...string) string {
	var b strings.Builder
	b.WriteString("/connections/")
	b.WriteString(url.PathEscape(sessionID))
	for _, seg := range rest {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

// envelope mirrors the server response wrapper.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	req.Header.Set("User-Agent", "vaultlink-cli/"+buildinfo.Get().Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	return parseResponse(resp, out)
}

// parseResponse decodes the envelope and unpacks data into out.
func parseResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.RequestID = env.RequestID
		}
		if apiErr.Code == "" {
			apiErr.Code = resp.Header.Get("X-Error-Code")
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
