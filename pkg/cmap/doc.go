// Package cmap provides a sharded concurrent map keyed by strings.
//
// Each shard has its own RWMutex, so operations on different keys rarely
// contend. Conditional writes (SetIfAbsent, CompareAndSwap,
// CompareAndDelete) run under the shard lock and are atomic with respect to
// other operations on the same key.
//
// Usage:
//
//	m := cmap.New[*domain.DApp]()
//	if !m.SetIfAbsent(key, dapp) {
//		// lost the race for key
//	}
package cmap
