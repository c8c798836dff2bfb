// Package adaptive seals storage values with an AEAD chosen for the host.
//
// New picks AES-256-GCM on architectures where Go's AES is hardware
// accelerated and ChaCha20-Poly1305 elsewhere. Both take a 32-byte key,
// normally produced by DeriveKey from an operator-supplied secret.
//
// Sealed values are nonce || ciphertext || tag. The associated data binds a
// value to its storage key, so a value copied under another key fails to
// open.
package adaptive
