// Package domain defines the core domain models for VaultLink.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - DApp: a browser session bound to one or more vaults
//   - Vault, Transaction, User: read-only references owned elsewhere
//   - RecoverCode: short-lived hand-off code for transaction approval
//   - Message and events: notification envelope and domain events
//   - Errors: domain-specific error definitions
package domain
