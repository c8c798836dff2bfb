package config

import "time"

// CLIConfig is the configuration for vaultlink-cli.
type CLIConfig struct {
	// Server is the HTTP API address, with or without scheme.
	Server string `koanf:"server" yaml:"server"`

	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile   string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	Insecure bool   `koanf:"insecure" yaml:"insecure,omitempty"`

	// Origin is sent as the Origin header for session commands.
	Origin string `koanf:"origin" yaml:"origin,omitempty"`

	// Output is table, json or yaml.
	Output  string        `koanf:"output" yaml:"output"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:8080",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}
