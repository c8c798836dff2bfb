package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yndnr/vaultlink-go/internal/infra/tlsroots"
)

// Config holds HTTP listener settings.
type Config struct {
	Address      string
	TLSCertFile  string
	TLSKeyFile   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Address:      "127.0.0.1:8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	cfg        Config
	logger     *slog.Logger

	mu         sync.Mutex
	stopReload context.CancelFunc
}

// New creates a new HTTP server. logger may be nil.
func New(cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		cfg:    cfg,
		logger: logger,
	}
}

// TLSEnabled reports whether both certificate and key are configured.
func (s *Server) TLSEnabled() bool {
	return s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != ""
}

// ListenAndServe starts the server, with TLS when configured.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on an existing listener. With TLS the key pair
// is reloaded whenever the files change.
func (s *Server) Serve(ln net.Listener) error {
	if !s.TLSEnabled() {
		return s.httpServer.Serve(ln)
	}

	certs, err := tlsroots.NewCertReloader(s.cfg.TLSCertFile, s.cfg.TLSKeyFile, tlsroots.WithLogger(s.logger))
	if err != nil {
		ln.Close()
		return err
	}
	s.httpServer.TLSConfig = certs.ServerConfig()

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.stopReload = cancel
	s.mu.Unlock()
	go func() {
		if err := certs.Run(ctx); err != nil {
			s.logger.Warn("certificate reload disabled", "error", err)
		}
	}()

	return s.httpServer.ServeTLS(ln, "", "")
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopReload != nil {
		s.stopReload()
	}
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}
