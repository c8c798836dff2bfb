package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultRESPAddr        = "127.0.0.1:6390"
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimit       = 100
	DefaultMaxSubs         = 16
	DefaultCommandRate     = 50

	DefaultEngine     = "memory"
	DefaultDataDir    = "/var/lib/vaultlink-server"
	DefaultGCInterval = 10 * time.Minute

	DefaultBufferSize  = 16
	DefaultServiceName = "vaultlink-server"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:        DefaultHTTPAddr,
				RateLimit:   DefaultRateLimit,
				EnableAudit: true,
			},
			RESP: RESPConfig{
				Enabled:          false,
				Addr:             DefaultRESPAddr,
				MaxSubscriptions: DefaultMaxSubs,
				CommandRate:      DefaultCommandRate,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Engine:     DefaultEngine,
			DataDir:    DefaultDataDir,
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
		},
		Notify: NotifySection{
			BufferSize: DefaultBufferSize,
			TxPending:  false,
		},
		Telemetry: TelemetrySection{
			ServiceName: DefaultServiceName,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
