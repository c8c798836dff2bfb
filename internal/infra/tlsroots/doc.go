// Package tlsroots provides TLS material for VaultLink.
//
// CertReloader serves the HTTPS key pair and swaps it when the files change,
// so certificates can be rotated without a restart. ClientConfig builds the
// client side trust store used by vaultlink-cli when a private CA signs the
// server certificate.
package tlsroots
