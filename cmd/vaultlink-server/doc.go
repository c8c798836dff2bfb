// Package main provides the entry point for vaultlink-server.
//
// The server hosts the DApp session service:
//
//   - HTTP/HTTPS API for connections and connector codes
//   - RESP endpoint that pushes session notifications to subscribers
//   - Prometheus metrics on /metrics
//
// Usage:
//
//	vaultlink-server [--config /path/to/config.yaml]
//	vaultlink-server seed --config config.yaml directory.yaml
//	vaultlink-server check-config --config config.yaml
//	vaultlink-server version
package main
