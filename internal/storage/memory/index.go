package memory

import (
	"sync"

	"github.com/yndnr/vaultlink-go/pkg/cmap"
)

// KeySet is a concurrent-safe set of storage keys.
type KeySet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewKeySet creates a new key set.
func NewKeySet() *KeySet {
	return &KeySet{items: make(map[string]struct{})}
}

// Add adds a key to the set.
func (s *KeySet) Add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = struct{}{}
}

// Remove removes a key and reports whether the set is now empty.
func (s *KeySet) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return len(s.items) == 0
}

// Len returns the number of keys in the set.
func (s *KeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a copy of all keys.
func (s *KeySet) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]string, 0, len(s.items))
	for k := range s.items {
		items = append(items, k)
	}
	return items
}

// SessionIndex maps a dapp session id to the keys of every session sharing
// it, one per origin.
type SessionIndex struct {
	mu    sync.Mutex
	index *cmap.Map[*KeySet]
}

// NewSessionIndex creates a new session index.
func NewSessionIndex() *SessionIndex {
	return &SessionIndex{index: cmap.New[*KeySet]()}
}

// Add records key under sessionID.
func (i *SessionIndex) Add(sessionID, key string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	set, ok := i.index.Get(sessionID)
	if !ok {
		set = NewKeySet()
		i.index.Set(sessionID, set)
	}
	set.Add(key)
}

// Remove drops key from sessionID, deleting the entry when it empties.
func (i *SessionIndex) Remove(sessionID, key string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	set, ok := i.index.Get(sessionID)
	if !ok {
		return
	}
	if set.Remove(key) {
		i.index.Delete(sessionID)
	}
}

// Keys returns the keys recorded under sessionID.
func (i *SessionIndex) Keys(sessionID string) []string {
	set, ok := i.index.Get(sessionID)
	if !ok {
		return nil
	}
	return set.Items()
}

// Len returns the number of indexed session ids.
func (i *SessionIndex) Len() int {
	return i.index.Count()
}
