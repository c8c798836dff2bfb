// Package config provides server configuration for VaultLink.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, engine, TLS files)
//   - sanitize.go: masking of secrets before logging
//
// Configuration is loaded via internal/infra/confloader.
package config
