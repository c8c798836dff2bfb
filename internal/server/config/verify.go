package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyNotify(&cfg.Notify)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry.sample_ratio must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		errs = append(errs, err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if cfg.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}

	if cfg.RESP.Enabled {
		if err := verifyAddr("server.resp.addr", cfg.RESP.Addr); err != nil {
			errs = append(errs, err)
		}
		if cfg.RESP.Addr == cfg.HTTP.Addr {
			errs = append(errs, errors.New("server.resp.addr conflicts with server.http.addr"))
		}
		if cfg.RESP.MaxSubscriptions < 1 {
			errs = append(errs, errors.New("server.resp.max_subscriptions must be at least 1"))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) []error {
	switch cfg.Engine {
	case "memory":
		return nil
	case "badger":
	default:
		return []error{fmt.Errorf("storage.engine %q is not one of memory, badger", cfg.Engine)}
	}

	var errs []error
	if cfg.DataDir == "" {
		return append(errs, errors.New("storage.data_dir is required for the badger engine"))
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		errs = append(errs, fmt.Errorf("cannot create data directory: %w", err))
	}
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) < 16 {
		errs = append(errs, errors.New("storage.encryption_key must be at least 16 characters"))
	}
	if cfg.GCInterval < 0 {
		errs = append(errs, errors.New("storage.gc_interval must not be negative"))
	}
	return errs
}

func verifyNotify(cfg *NotifySection) []error {
	if cfg.BufferSize < 1 {
		return []error{errors.New("notify.buffer_size must be at least 1")}
	}
	return nil
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errs
}
