package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/yndnr/vaultlink-go/internal/core/service"
	"github.com/yndnr/vaultlink-go/internal/infra/buildinfo"
	"github.com/yndnr/vaultlink-go/internal/infra/shutdown"
	"github.com/yndnr/vaultlink-go/internal/notify"
	"github.com/yndnr/vaultlink-go/internal/server/config"
	"github.com/yndnr/vaultlink-go/internal/server/httpserver"
	"github.com/yndnr/vaultlink-go/internal/server/respserver"
	"github.com/yndnr/vaultlink-go/internal/storage"
	"github.com/yndnr/vaultlink-go/internal/storage/memory"
	"github.com/yndnr/vaultlink-go/internal/storage/seed"
	"github.com/yndnr/vaultlink-go/internal/storage/sqlite"
	"github.com/yndnr/vaultlink-go/internal/telemetry/logger"
	"github.com/yndnr/vaultlink-go/internal/telemetry/metric"
	"github.com/yndnr/vaultlink-go/internal/telemetry/tracer"
)

func serve(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	info := buildinfo.Get()
	log.Info("starting vaultlink-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, logger.Slog(log))
	app, err := build(ctx, cfg, shutdownHandler)
	if err != nil {
		// Release whatever was opened before the failure.
		shutdownHandler.Shutdown()
		return err
	}

	if configFile != "" {
		w, err := watchConfig(configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	if err := app.start(shutdownHandler); err != nil {
		shutdownHandler.Shutdown()
		return err
	}

	log.Info("server started")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// app holds the wired components of a running server.
type app struct {
	cfg       *config.ServerConfig
	log       *slog.Logger
	metrics   *metric.Registry
	hub       *notify.Hub
	connector *service.ConnectorService
	dir       *directory

	http *httpserver.Server
	resp *respserver.Server
}

// build opens storage and wires services. Every opened resource registers a
// shutdown hook as soon as it exists.
func build(ctx context.Context, cfg *config.ServerConfig, sh *shutdown.Handler) (*app, error) {
	log := slog.Default()

	tp, err := tracer.New(ctx, tracer.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTelEndpoint,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	sh.OnShutdown("tracer", tp.Shutdown)

	metrics := metric.NewRegistry()

	engine, err := storage.Open(storageConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	sh.OnShutdown("storage", func(context.Context) error { return engine.Close() })
	engine.RegisterMetrics(metrics.Prometheus())

	dir, err := openDirectory(ctx, cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("init directory: %w", err)
	}
	sh.OnShutdown("directory", func(context.Context) error { return dir.close() })

	hub := notify.NewHub(cfg.Notify.BufferSize, log)
	sh.OnShutdown("notify hub", func(context.Context) error { hub.Close(); return nil })
	if err := metrics.RegisterHub(hub); err != nil {
		return nil, fmt.Errorf("register hub metrics: %w", err)
	}

	eventLog := logger.Default().With("component", "events")
	events := service.NewEventDispatcher(eventLog, metrics,
		service.NewNotificationSink(hub, cfg.Notify.TxPending),
		service.NewMetricsSink(metrics),
		service.NewLogSink(eventLog),
	)

	registry := service.NewSessionRegistry(engine.DApps, nil, events)
	gate := service.NewTransactionGate(dir.txs)
	issuer := service.NewRecoverCodeIssuer(engine.Codes, dir.vaults, nil)
	connector := service.NewConnectorService(registry, gate, issuer, dir.vaults, dir.users, events)

	log.Info("services initialized",
		"storage_engine", cfg.Storage.Engine,
		"directory", dir.kind,
		"tx_pending", cfg.Notify.TxPending)

	return &app{
		cfg:       cfg,
		log:       log,
		metrics:   metrics,
		hub:       hub,
		connector: connector,
		dir:       dir,
	}, nil
}

func storageConfig(cfg *config.ServerConfig, log *slog.Logger) storage.Config {
	sc := storage.DefaultConfig(cfg.Storage.DataDir)
	sc.Engine = cfg.Storage.Engine
	sc.EncryptionKey = cfg.Storage.EncryptionKey
	sc.Badger.SyncWrites = cfg.Storage.SyncWrites
	if cfg.Storage.GCInterval > 0 {
		sc.Badger.GCInterval = cfg.Storage.GCInterval.String()
	}
	sc.Logger = log
	return sc
}

// start brings up the listeners. Listeners shut down before the stores
// registered in build because hooks run in reverse order.
func (a *app) start(sh *shutdown.Handler) error {
	httpCfg := a.cfg.Server.HTTP
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Connector:          a.connector,
		Ready:              a.dir.ready,
		Metrics:            a.metrics,
		Logger:             a.log,
		CORSAllowedOrigins: httpCfg.CORSAllowedOrigins,
		RateLimit: httpserver.RateLimitConfig{
			RequestsPerSecond: httpCfg.RateLimit,
			Burst:             httpCfg.RateBurst,
		},
		EnableAudit: httpCfg.EnableAudit,
	})

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Address = httpCfg.Addr
	serverCfg.TLSCertFile = httpCfg.TLSCertFile
	serverCfg.TLSKeyFile = httpCfg.TLSKeyFile
	a.http = httpserver.New(serverCfg, router, a.log)

	if a.cfg.Server.RESP.Enabled {
		respCfg := respserver.DefaultConfig()
		respCfg.Address = a.cfg.Server.RESP.Addr
		respCfg.MaxSubscriptions = a.cfg.Server.RESP.MaxSubscriptions
		respCfg.CommandRate = a.cfg.Server.RESP.CommandRate

		a.resp = respserver.New(respCfg, a.hub, a.metrics, a.log)
		if err := a.resp.Start(context.Background()); err != nil {
			return fmt.Errorf("start resp server: %w", err)
		}
		sh.OnShutdown("resp server", a.resp.Shutdown)
		a.log.Info("RESP server listening", "addr", respCfg.Address)
	}

	sh.OnShutdown("http server", a.http.Shutdown)
	go func() {
		a.log.Info("HTTP server listening", "addr", httpCfg.Addr, "tls", a.http.TLSEnabled())
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server error", "error", err)
			sh.Shutdown()
		}
	}()
	return nil
}

// directory is the vault, user and transaction lookup side.
type directory struct {
	kind   string
	vaults service.VaultDirectory
	users  service.UserDirectory
	txs    service.TransactionRepository
	target seed.Target
	ready  func(ctx context.Context) error
	close  func() error
}

// openDirectory opens the sqlite directory, or an in-memory one when no
// path is configured, and applies the seed file if one is set.
func openDirectory(ctx context.Context, cfg config.DirectorySection) (*directory, error) {
	var dir *directory
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		dir = &directory{
			kind:   "sqlite",
			vaults: store.Vaults(),
			users:  store.Users(),
			txs:    store.Transactions(),
			target: seed.SQLiteTarget(store),
			ready:  store.Ping,
			close:  store.Close,
		}
	} else {
		vaults, users, txs := memory.NewVaults(), memory.NewUsers(), memory.NewTransactions()
		dir = &directory{
			kind:   "memory",
			vaults: vaults,
			users:  users,
			txs:    txs,
			target: seed.MemoryTarget(vaults, users, txs),
			close:  func() error { return nil },
		}
	}

	if cfg.SeedFile == "" {
		return dir, nil
	}
	f, err := seed.Load(cfg.SeedFile)
	if err == nil {
		_, err = seed.Apply(ctx, f, dir.target)
	}
	if err != nil {
		dir.close()
		return nil, err
	}
	return dir, nil
}
