package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/yndnr/vaultlink-go/internal/infra/confloader"
	"github.com/yndnr/vaultlink-go/internal/server/config"
	"github.com/yndnr/vaultlink-go/internal/storage/seed"
	"github.com/yndnr/vaultlink-go/internal/storage/sqlite"
	"github.com/yndnr/vaultlink-go/internal/telemetry/logger"
)

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger installs the process logger. Libraries taking *slog.Logger
// receive slog.Default() afterwards.
func initLogger(cfg *config.ServerConfig, out io.Writer) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	slog.SetDefault(logger.Slog(log))
	return log, nil
}

// watchConfig reapplies log.level whenever the config file changes. Other
// settings need a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}

func checkConfig(configFile string, out io.Writer) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(config.Sanitize(cfg))
}

// seedDirectory loads a seed file into the configured sqlite directory.
func seedDirectory(ctx context.Context, configFile, seedFile string, out io.Writer) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.Directory.SQLitePath == "" {
		return fmt.Errorf("directory.sqlite_path is not set; an in-memory directory cannot be seeded offline")
	}

	f, err := seed.Load(seedFile)
	if err != nil {
		return err
	}
	store, err := sqlite.Open(ctx, cfg.Directory.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := seed.Apply(ctx, f, seed.SQLiteTarget(store))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %d vaults, %d users, %d transactions into %s\n",
		counts.Vaults, counts.Users, counts.Transactions, cfg.Directory.SQLitePath)
	return nil
}
