// Package logger provides structured logging for VaultLink.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, handler setup and runtime level changes
//   - context.go: context-aware logging with request and trace IDs
//   - redact.go: masking of recover codes and secret-looking keys
//
// Recover codes (vlrc_ prefix) are bearer material for a pending transaction
// and are never written in full.
package logger
