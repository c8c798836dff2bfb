package tlsroots

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeKeyPair writes a self-signed server certificate for 127.0.0.1 and
// returns its PEM.
func writeKeyPair(t *testing.T, certFile, keyFile string, serial int64) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: "vaultlink.test"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		t.Fatalf("WriteFile(key) error = %v", err)
	}
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("WriteFile(cert) error = %v", err)
	}
	return certPEM
}

func serialOf(t *testing.T, r *CertReloader) int64 {
	t.Helper()
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return leaf.SerialNumber.Int64()
}

func TestClientConfig(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "ca.crt")
	writeKeyPair(t, certFile, filepath.Join(dir, "ca.key"), 1)

	t.Run("system roots only", func(t *testing.T) {
		cfg, err := ClientConfig("", false)
		if err != nil {
			t.Fatalf("ClientConfig() error = %v", err)
		}
		if cfg.RootCAs != nil {
			t.Error("RootCAs set without a CA file")
		}
		if cfg.MinVersion != tls.VersionTLS12 {
			t.Errorf("MinVersion = %x", cfg.MinVersion)
		}
	})

	t.Run("custom ca", func(t *testing.T) {
		cfg, err := ClientConfig(certFile, false)
		if err != nil {
			t.Fatalf("ClientConfig() error = %v", err)
		}
		if cfg.RootCAs == nil {
			t.Error("RootCAs not set")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ClientConfig(filepath.Join(dir, "nope.crt"), false); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("no certificates", func(t *testing.T) {
		junk := filepath.Join(dir, "junk.pem")
		if err := os.WriteFile(junk, []byte("not pem"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := ClientConfig(junk, false)
		if !errors.Is(err, ErrNoCertsFound) {
			t.Errorf("error = %v, want ErrNoCertsFound", err)
		}
	})
}

func TestNewCertReloader_Invalid(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	os.WriteFile(certFile, []byte("invalid"), 0644)
	os.WriteFile(keyFile, []byte("invalid"), 0600)

	if _, err := NewCertReloader(certFile, keyFile); err == nil {
		t.Error("expected error for invalid key pair")
	}
	if _, err := NewCertReloader("/nonexistent/a.crt", "/nonexistent/a.key"); err == nil {
		t.Error("expected error for missing files")
	}
}

func TestCertReloader_Reload(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	writeKeyPair(t, certFile, keyFile, 1)

	r, err := NewCertReloader(certFile, keyFile, WithLogger(discardLogger()), WithSettle(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	if got := serialOf(t, r); got != 1 {
		t.Fatalf("serial = %d, want 1", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	writeKeyPair(t, certFile, keyFile, 2)

	deadline := time.Now().Add(3 * time.Second)
	for serialOf(t, r) != 2 {
		if time.Now().After(deadline) {
			t.Fatal("certificate was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// A broken write keeps the previous pair.
	os.WriteFile(certFile, []byte("garbage"), 0644)
	time.Sleep(200 * time.Millisecond)
	if got := serialOf(t, r); got != 2 {
		t.Errorf("serial after bad write = %d, want 2", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run() did not return after cancel")
	}
}

func TestCertReloader_ServesTLS(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	writeKeyPair(t, certFile, keyFile, 7)

	r, err := NewCertReloader(certFile, keyFile, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		TLSConfig: r.ServerConfig(),
	}
	go srv.ServeTLS(ln, "", "")
	defer srv.Close()

	clientCfg, err := ClientConfig(certFile, false)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: clientCfg}}

	resp, err := client.Get("https://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}
