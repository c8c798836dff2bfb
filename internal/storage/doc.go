// Package storage provides durable session and recover code storage.
//
// Two engines are available:
//
//   - memory: sharded concurrent maps, lost on restart
//   - badger: an embedded LSM store with optional at-rest encryption
//
// Open selects the engine from Config and returns an Engine exposing the
// dapp and recover code repositories used by the core services. Both
// engines enforce uniqueness of the (session id, origin) key; Badger does
// so through transaction conflict detection.
package storage
