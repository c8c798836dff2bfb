// Package token generates and checks prefixed random tokens.
//
// A token is a short ASCII prefix followed by the unpadded base64url
// encoding of n bytes from crypto/rand. Hash gives a stable, non-reversible
// handle for a token, for use as a storage key.
package token
