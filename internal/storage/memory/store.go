package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/pkg/cmap"
)

// Store provides in-memory dapp session storage.
type Store struct {
	// Primary index: SessionKey.String() -> DApp
	dapps *cmap.Map[*domain.DApp]

	// Secondary index: SessionID -> set of primary keys
	sessions *SessionIndex

	// structMu pairs each insert or removal with its index change.
	structMu sync.Mutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		dapps:    cmap.New[*domain.DApp](),
		sessions: NewSessionIndex(),
	}
}

// Get retrieves a session by key.
func (s *Store) Get(_ context.Context, key domain.SessionKey) (*domain.DApp, error) {
	d, ok := s.dapps.Get(key.String())
	if !ok {
		return nil, domain.ErrDAppNotFound
	}
	return d.Clone(), nil
}

// FindBySessionID returns every session with the given session id.
func (s *Store) FindBySessionID(_ context.Context, sessionID string) ([]*domain.DApp, error) {
	keys := s.sessions.Keys(sessionID)
	out := make([]*domain.DApp, 0, len(keys))
	for _, k := range keys {
		if d, ok := s.dapps.Get(k); ok {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

// Create stores a new session. A concurrent Create for the same key loses
// with domain.ErrDAppConflict.
func (s *Store) Create(_ context.Context, dapp *domain.DApp) error {
	if err := dapp.Validate(); err != nil {
		return err
	}

	key := dapp.Key().String()
	s.structMu.Lock()
	defer s.structMu.Unlock()
	if !s.dapps.SetIfAbsent(key, dapp.Clone()) {
		return domain.ErrDAppConflict.WithDetails(dapp.SessionID)
	}
	s.sessions.Add(dapp.SessionID, key)
	return nil
}

// Update replaces a session if its stored version equals expectedVersion.
func (s *Store) Update(_ context.Context, dapp *domain.DApp, expectedVersion uint64) error {
	if err := dapp.Validate(); err != nil {
		return err
	}

	key := dapp.Key().String()
	if _, ok := s.dapps.Get(key); !ok {
		return domain.ErrDAppNotFound
	}

	swapped := s.dapps.CompareAndSwap(key, dapp.Clone(), func(cur *domain.DApp) bool {
		return cur.Version == expectedVersion
	})
	if !swapped {
		return domain.ErrDAppVersionConflict
	}
	return nil
}

// Delete removes a session by key.
func (s *Store) Delete(_ context.Context, key domain.SessionKey) error {
	s.structMu.Lock()
	defer s.structMu.Unlock()
	if !s.dapps.Delete(key.String()) {
		return domain.ErrDAppNotFound
	}
	s.sessions.Remove(key.SessionID, key.String())
	return nil
}

// Count returns the number of stored sessions.
func (s *Store) Count() int {
	return s.dapps.Count()
}

// purgeEvery is the number of inserts between purges of retired codes.
const purgeEvery = 256

// CodeStore provides in-memory recover code storage. Codes are dropped
// domain.RecoverCodeRetention after they expire, checked every purgeEvery
// inserts.
type CodeStore struct {
	codes   *cmap.Map[*domain.RecoverCode]
	inserts atomic.Uint64
}

// NewCodeStore creates a new in-memory code store.
func NewCodeStore() *CodeStore {
	return &CodeStore{codes: cmap.New[*domain.RecoverCode]()}
}

// Create stores a code.
func (s *CodeStore) Create(_ context.Context, code *domain.RecoverCode) error {
	if !s.codes.SetIfAbsent(code.Code, code.Clone()) {
		return domain.ErrRecoverCodeConflict
	}
	if s.inserts.Add(1)%purgeEvery == 0 {
		s.Purge(code.CreatedAt)
	}
	return nil
}

// Purge removes codes that expired more than domain.RecoverCodeRetention
// before now and returns how many were removed.
func (s *CodeStore) Purge(now time.Time) int {
	cutoff := now.Add(-domain.RecoverCodeRetention)
	var retired []string
	s.codes.Range(func(key string, rc *domain.RecoverCode) bool {
		if rc.ValidAt.Before(cutoff) {
			retired = append(retired, key)
		}
		return true
	})

	n := 0
	for _, key := range retired {
		if s.codes.Delete(key) {
			n++
		}
	}
	return n
}

// Count returns the number of stored codes.
func (s *CodeStore) Count() int {
	return s.codes.Count()
}

// Get retrieves a code by value. Expired codes are returned as stored.
func (s *CodeStore) Get(_ context.Context, code string) (*domain.RecoverCode, error) {
	rc, ok := s.codes.Get(code)
	if !ok {
		return nil, domain.ErrRecoverCodeNotFound
	}
	return rc.Clone(), nil
}
