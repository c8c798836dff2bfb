// Package service provides domain services for VaultLink.
//
// Domain services contain the session and transaction-handshake logic and
// orchestrate operations on domain models. They define interfaces for their
// storage and transport dependencies, allowing for dependency injection and
// testability.
//
// This package contains:
//
//   - SessionRegistry: dapp session find-or-create, vault binding and removal
//   - TransactionGate: pending multisig requirement checks per vault
//   - RecoverCodeIssuer: short-lived connector codes for cross-device approval
//   - EventDispatcher: fan-out of domain events to best-effort sinks
//   - ConnectorService: the connector-facing operations built on the above
//
// Services hold no locks across storage or notification calls and are safe
// for concurrent use.
package service
