package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/core/service"
	"github.com/yndnr/vaultlink-go/internal/server/httpserver"
	"github.com/yndnr/vaultlink-go/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	vaults := memory.NewVaults()
	vaults.Put(&domain.Vault{ID: "v1", Address: "0xaaa", Name: "Main", Provider: "https://rpc.one"})
	vaults.Put(&domain.Vault{ID: "v2", Address: "0xbbb", Name: "Ops", Provider: "https://rpc.two"})
	txs := memory.NewTransactions()
	txs.Put(&domain.Transaction{Hash: "0xt1", VaultAddress: "0xaaa", Status: domain.StatusAwaitRequirements})

	registry := service.NewSessionRegistry(memory.New(), nil, nil)
	connector := service.NewConnectorService(registry,
		service.NewTransactionGate(txs),
		service.NewRecoverCodeIssuer(memory.NewCodeStore(), vaults, nil),
		vaults, memory.NewUsers(), nil)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Connector: connector,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8080", "http://localhost:8080"},
		{"https://localhost:8080/", "https://localhost:8080"},
		{"localhost:8080", "http://localhost:8080"},
		{"api.example.com", "http://api.example.com"},
	}
	for _, tt := range tests {
		if got := NewClient(tt.server).BaseURL(); got != tt.want {
			t.Errorf("NewClient(%q).BaseURL() = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestClient_SessionFlow(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, WithOrigin("https://dapp.example"))
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	conn, err := c.Connect(ctx, &ConnectRequest{VaultID: "v1", SessionID: "s1", Name: "Swap"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !conn.Created || conn.Origin != "https://dapp.example" || conn.CurrentVault.Address != "0xaaa" {
		t.Errorf("Connect() = %+v", conn)
	}

	conn, err = c.Connect(ctx, &ConnectRequest{VaultID: "v2", SessionID: "s1"})
	if err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if conn.Created || !conn.Switched || len(conn.Vaults) != 2 {
		t.Errorf("second Connect() = %+v", conn)
	}

	if ok, err := c.State(ctx, "s1"); err != nil || !ok {
		t.Errorf("State() = %v, %v", ok, err)
	}
	if accts, err := c.Accounts(ctx, "s1"); err != nil || len(accts) != 2 {
		t.Errorf("Accounts() = %v, %v", accts, err)
	}
	if addr, err := c.CurrentAccount(ctx, "s1"); err != nil || addr != "0xbbb" {
		t.Errorf("CurrentAccount() = %q, %v", addr, err)
	}
	if p, err := c.CurrentNetwork(ctx, "s1"); err != nil || p != "https://rpc.two" {
		t.Errorf("CurrentNetwork() = %q, %v", p, err)
	}
	if id, err := c.Current(ctx, "s1"); err != nil || id != "v2" {
		t.Errorf("Current() = %q, %v", id, err)
	}

	if err := c.Disconnect(ctx, "s1"); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if ok, err := c.State(ctx, "s1"); err != nil || ok {
		t.Errorf("State() after disconnect = %v, %v", ok, err)
	}
}

func TestClient_Codes(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, WithOrigin("https://dapp.example"))
	ctx := context.Background()

	if _, err := c.Connect(ctx, &ConnectRequest{VaultID: "v1", SessionID: "s1"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	code, err := c.IssueCode(ctx, "s1", "0xaaa", "0xt1")
	if err != nil {
		t.Fatalf("IssueCode() error = %v", err)
	}
	if code.Code == "" || code.TxBlocked == nil || !*code.TxBlocked {
		t.Errorf("IssueCode() = %+v", code)
	}
	if code.Metadata.TxID != "0xt1" {
		t.Errorf("Metadata.TxID = %q", code.Metadata.TxID)
	}

	got, err := c.LookupCode(ctx, code.Code)
	if err != nil {
		t.Fatalf("LookupCode() error = %v", err)
	}
	if got.Origin != "https://dapp.example" || got.CreatedAt == nil {
		t.Errorf("LookupCode() = %+v", got)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, WithOrigin("https://dapp.example"))

	_, err := c.CurrentAccount(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != domain.ErrDAppNotFound.Code {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.RequestID == "" {
		t.Error("RequestID not captured")
	}
}

func TestParseResponse_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Error-Code", "VL-SYS-5000")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Code != "VL-SYS-5000" {
		t.Errorf("error = %#v", err)
	}
}

func TestSessionPath(t *testing.T) {
	got := sessionPath("a/b", "transaction", "0xaaa", "t 1")
	want := "/connections/a%2Fb/transaction/0xaaa/t%201"
	if got != want {
		t.Errorf("sessionPath() = %q, want %q", got, want)
	}
}
