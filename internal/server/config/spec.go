// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for vaultlink-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	Directory DirectorySection `koanf:"directory"`
	Notify    NotifySection    `koanf:"notify"`
	Telemetry TelemetrySection `koanf:"telemetry"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
	RESP RESPConfig `koanf:"resp"`

	// ShutdownTimeout bounds graceful shutdown of all listeners.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Empty allows every origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	EnableAudit bool `koanf:"enable_audit"`
}

// RESPConfig configures the RESP notification endpoint.
type RESPConfig struct {
	Enabled          bool    `koanf:"enabled"`
	Addr             string  `koanf:"addr"`
	MaxSubscriptions int     `koanf:"max_subscriptions"`
	CommandRate      float64 `koanf:"command_rate"`
}

// StorageSection configures session and code storage.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine  string `koanf:"engine"`
	DataDir string `koanf:"data_dir"`

	// EncryptionKey enables at-rest encryption of badger values.
	EncryptionKey string `koanf:"encryption_key"`

	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// DirectorySection configures the vault, user and transaction directory.
type DirectorySection struct {
	// SQLitePath is the directory database. Empty keeps the directory in
	// memory, populated only by seed files.
	SQLitePath string `koanf:"sqlite_path"`

	// SeedFile is an optional YAML file loaded into the directory at start.
	SeedFile string `koanf:"seed_file"`
}

// NotifySection configures notification fan-out.
type NotifySection struct {
	// BufferSize is the per-subscriber queue length.
	BufferSize int `koanf:"buffer_size"`

	// TxPending pushes [TX_PENDING] messages when a connector code is issued.
	TxPending bool `koanf:"tx_pending"`
}

// TelemetrySection configures tracing.
type TelemetrySection struct {
	OTelEndpoint string  `koanf:"otel_endpoint"`
	ServiceName  string  `koanf:"service_name"`
	SampleRatio  float64 `koanf:"sample_ratio"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
