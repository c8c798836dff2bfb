// Package handler provides HTTP request handlers for VaultLink.
//
// This package contains handlers for all HTTP endpoints:
//
//   - connection.go: dapp connect, disconnect and session reads
//   - code.go: connector code issue and lookup
//   - health.go: health and readiness checks
//
// Handlers parse the request, call the connector service and wrap the
// result in the Response envelope. Domain error codes map to HTTP status
// codes by their numeric suffix.
package handler
