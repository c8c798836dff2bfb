package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/vaultlink-go/internal/core/service"
	"github.com/yndnr/vaultlink-go/internal/server/httpserver/handler"
	"github.com/yndnr/vaultlink-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Connector serves every dapp and code endpoint.
	Connector *service.ConnectorService

	// Ready backs /ready. Nil means always ready.
	Ready handler.ReadyFunc

	// Metrics backs /metrics and the request metrics. Nil disables both.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit. Zero RequestsPerSecond disables it.
	RateLimit RateLimitConfig

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:   RateLimitConfig{RequestsPerSecond: 100},
		EnableAudit: true,
	}
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Connector, cfg.Ready, log)

	mux := http.NewServeMux()
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.Handle("/", h)

	// Order: Recover -> CORS -> RequestID -> RateLimit -> Audit -> Handler
	middlewares := []Middleware{
		Recover(log),
		CORS(cfg.CORSAllowedOrigins),
		RequestID(),
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit, cfg.Metrics))
	}
	if cfg.EnableAudit {
		middlewares = append(middlewares, Audit(log, cfg.Metrics))
	}

	return Chain(mux, middlewares...)
}
