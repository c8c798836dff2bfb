package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/pkg/crypto/adaptive"
	"github.com/yndnr/vaultlink-go/pkg/token"
)

// Key prefixes. A dapp key is prefixDApp + SessionKey.String(), so all
// origins of one session id are contiguous and FindBySessionID is a
// prefix scan.
const (
	prefixDApp = "dapp/"
	prefixCode = "code/"
)

// BadgerStore persists dapp sessions and recover codes in Badger.
// Values are JSON, sealed with the configured cipher when one is set.
type BadgerStore struct {
	engine *BadgerEngine
	cipher adaptive.Cipher
	logger *slog.Logger
}

// NewBadgerStore creates a store over engine. cipher may be nil.
func NewBadgerStore(engine *BadgerEngine, cipher adaptive.Cipher, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{engine: engine, cipher: cipher, logger: logger}
}

func dappKey(key domain.SessionKey) []byte {
	return []byte(prefixDApp + key.String())
}

// codeKey stores codes under their hash so raw codes never appear in
// the LSM key space.
func codeKey(code string) []byte {
	return []byte(prefixCode + token.Hash(code))
}

// encode marshals v and seals it bound to its storage key.
func (s *BadgerStore) encode(key []byte, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if s.cipher == nil {
		return data, nil
	}
	return s.cipher.Encrypt(data, key)
}

func (s *BadgerStore) decode(key, data []byte, v any) error {
	if s.cipher != nil {
		plain, err := s.cipher.Decrypt(data, key)
		if err != nil {
			return err
		}
		data = plain
	}
	return json.Unmarshal(data, v)
}

func (s *BadgerStore) readDApp(txn *badger.Txn, key []byte) (*domain.DApp, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrDAppNotFound
		}
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var d domain.DApp
	if err := s.decode(key, raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Get retrieves a session by key.
func (s *BadgerStore) Get(_ context.Context, key domain.SessionKey) (*domain.DApp, error) {
	var d *domain.DApp
	err := s.engine.View(func(txn *badger.Txn) error {
		var err error
		d, err = s.readDApp(txn, dappKey(key))
		return err
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return d, nil
}

// FindBySessionID returns every session with the given session id.
func (s *BadgerStore) FindBySessionID(ctx context.Context, sessionID string) ([]*domain.DApp, error) {
	prefix := []byte(prefixDApp + sessionID + "\x00")

	var out []*domain.DApp
	var decodeErr error
	err := s.engine.Scan(ctx, prefix, func(key, value []byte) bool {
		var d domain.DApp
		if decodeErr = s.decode(key, value, &d); decodeErr != nil {
			return false
		}
		out = append(out, &d)
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, wrapStorage(err)
	}
	return out, nil
}

// Create stores a new session. An existing key, or a concurrent creator
// committing first, yields domain.ErrDAppConflict.
func (s *BadgerStore) Create(_ context.Context, dapp *domain.DApp) error {
	if err := dapp.Validate(); err != nil {
		return err
	}

	key := dappKey(dapp.Key())
	err := s.engine.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return domain.ErrDAppConflict.WithDetails(dapp.SessionID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		val, err := s.encode(key, dapp)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrDAppConflict.WithDetails(dapp.SessionID)
	}
	return wrapStorage(err)
}

// Update replaces a session if its stored version equals expectedVersion.
func (s *BadgerStore) Update(_ context.Context, dapp *domain.DApp, expectedVersion uint64) error {
	if err := dapp.Validate(); err != nil {
		return err
	}

	key := dappKey(dapp.Key())
	err := s.engine.Update(func(txn *badger.Txn) error {
		cur, err := s.readDApp(txn, key)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return domain.ErrDAppVersionConflict
		}

		val, err := s.encode(key, dapp)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrDAppVersionConflict
	}
	return wrapStorage(err)
}

// Delete removes a session by key.
func (s *BadgerStore) Delete(_ context.Context, key domain.SessionKey) error {
	k := dappKey(key)
	err := s.engine.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrDAppNotFound
			}
			return err
		}
		return txn.Delete(k)
	})
	return wrapStorage(err)
}

// Codes returns the recover code repository backed by the same database.
func (s *BadgerStore) Codes() *BadgerCodeStore {
	return &BadgerCodeStore{store: s}
}

// BadgerCodeStore persists recover codes. Entries carry a Badger TTL so
// expired codes are eventually compacted away; lookups past ValidAt are
// still rejected by the issuer before that happens.
type BadgerCodeStore struct {
	store *BadgerStore
}

// Create stores a code. A duplicate value yields domain.ErrRecoverCodeConflict.
func (c *BadgerCodeStore) Create(_ context.Context, code *domain.RecoverCode) error {
	key := codeKey(code.Code)
	err := c.store.engine.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return domain.ErrRecoverCodeConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		val, err := c.store.encode(key, code)
		if err != nil {
			return err
		}
		ttl := code.ValidAt.Sub(code.CreatedAt) + domain.RecoverCodeRetention
		return txn.SetEntry(badger.NewEntry(key, val).WithTTL(ttl))
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrRecoverCodeConflict
	}
	return wrapStorage(err)
}

// Get retrieves a code by value.
func (c *BadgerCodeStore) Get(ctx context.Context, code string) (*domain.RecoverCode, error) {
	key := codeKey(code)
	raw, err := c.store.engine.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrRecoverCodeNotFound
		}
		return nil, wrapStorage(err)
	}

	var rc domain.RecoverCode
	if err := c.store.decode(key, raw, &rc); err != nil {
		return nil, wrapStorage(err)
	}
	return &rc, nil
}

// wrapStorage passes domain errors through and wraps anything else.
func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
