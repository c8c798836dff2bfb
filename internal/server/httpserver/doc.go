// Package httpserver provides the HTTP/HTTPS server for VaultLink.
//
// This package implements the dapp connector API using stdlib net/http:
//
//   - Connection endpoints: /connections, /connections/{sessionId}/...
//   - Connector codes: /connections/{sessionId}/transaction/..., /codes/{code}
//   - Health endpoints: /health, /ready, /metrics
//
// Requests pass through Recover, CORS, RequestID, RateLimit and Audit in
// that order.
package httpserver
