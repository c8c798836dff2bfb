// Package connection is the vaultlink-cli client for the VaultLink HTTP API.
//
// Client speaks HTTP or HTTPS, unwraps the response envelope and returns
// server failures as *APIError carrying the VL-* error code.
package connection
