// Package memory provides in-memory storage for VaultLink.
//
// Store keeps dapp sessions in a sharded map keyed by the composite session
// key, with a secondary index from session id to keys for origin-less
// lookups. Uniqueness of the session key is enforced by an atomic
// insert-if-absent on the primary map; updates use version compare-and-swap.
//
// CodeStore, Vaults, Users and Transactions back the remaining repositories
// for tests and single-node deployments without a directory database.
//
// All types are safe for concurrent use and return clones, never the stored
// values.
package memory
