package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// Emitter receives domain events. EventDispatcher is the production emitter.
type Emitter interface {
	Emit(ctx context.Context, ev domain.Event)
}

// SessionRegistry owns dapp sessions: their vault set and current vault.
// It is the only writer of domain.DApp records.
type SessionRegistry struct {
	repo    DAppRepository
	clock   Clock
	emitter Emitter
}

// NewSessionRegistry creates a new SessionRegistry. A nil emitter disables events.
func NewSessionRegistry(repo DAppRepository, clock Clock, emitter Emitter) *SessionRegistry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SessionRegistry{
		repo:    repo,
		clock:   clock,
		emitter: emitter,
	}
}

// ============================================================================
// Find-or-create
// ============================================================================

// BindRequest contains parameters for binding a vault to a session.
type BindRequest struct {
	Key   domain.SessionKey
	Vault domain.VaultRef

	// Name is applied only when the session is created.
	Name string

	// UserID sets the owner if the session has none yet.
	UserID string
}

// Validate checks the request once at the boundary.
func (r *BindRequest) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if r.Vault.ID == "" {
		return domain.ErrMissingArgument.WithDetails("vault id is required")
	}
	if len(r.Name) > domain.MaxNameLength {
		return domain.ErrInvalidArgument.WithDetails("name exceeds 256 characters")
	}
	return nil
}

// BindResult contains the result of FindOrCreate.
type BindResult struct {
	DApp *domain.DApp

	// Created is true when this call created the session.
	Created bool

	// Switched is true when an existing session's current vault changed.
	Switched bool
}

// FindOrCreate binds req.Vault to the session identified by req.Key,
// creating the session on first connect. The vault becomes current in all
// cases.
//
// Two concurrent calls for a fresh key may both miss the lookup; the loser
// gets a conflict from storage and is replayed once as an update.
func (r *SessionRegistry) FindOrCreate(ctx context.Context, req *BindRequest) (*BindResult, error) {
	// 1. Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Lookup-then-create/update, retried once on conflict
	res, err := r.bind(ctx, req)
	if err != nil && domain.IsConflict(err) {
		res, err = r.bind(ctx, req)
		if err != nil && domain.IsConflict(err) {
			return nil, domain.ErrDAppConflict.WithCause(err)
		}
	}
	if err != nil {
		return nil, err
	}

	// 3. Announce new bindings
	if (res.Created || res.Switched) && r.emitter != nil {
		r.emitter.Emit(ctx, domain.SessionBound{
			Key:      req.Key,
			Vault:    req.Vault,
			Created:  res.Created,
			Switched: res.Switched,
		})
	}

	return res, nil
}

func (r *SessionRegistry) bind(ctx context.Context, req *BindRequest) (*BindResult, error) {
	now := r.clock.Now()

	existing, err := r.repo.Get(ctx, req.Key)
	switch {
	case err == nil:
		return r.rebind(ctx, existing, req)
	case !domain.IsNotFound(err):
		return nil, storageError(err)
	}

	dapp, err := domain.NewDApp(req.Key, req.Vault, now)
	if err != nil {
		return nil, err
	}
	dapp.Name = req.Name
	dapp.UserID = req.UserID
	mustHoldInvariant(dapp)

	if err := r.repo.Create(ctx, dapp); err != nil {
		return nil, storageError(err)
	}
	return &BindResult{DApp: dapp, Created: true}, nil
}

func (r *SessionRegistry) rebind(ctx context.Context, dapp *domain.DApp, req *BindRequest) (*BindResult, error) {
	oldVersion := dapp.Version

	switched := dapp.Bind(req.Vault, r.clock.Now())
	if dapp.UserID == "" && req.UserID != "" {
		dapp.UserID = req.UserID
	}
	dapp.IncrVersion()
	mustHoldInvariant(dapp)

	if err := r.repo.Update(ctx, dapp, oldVersion); err != nil {
		return nil, storageError(err)
	}
	return &BindResult{DApp: dapp, Switched: switched}, nil
}

// mustHoldInvariant panics when a session would be persisted with a current
// vault outside its bound set. That state is only reachable through a bug.
func mustHoldInvariant(dapp *domain.DApp) {
	if err := dapp.CheckInvariant(); err != nil {
		panic(fmt.Sprintf("session registry: %v", err))
	}
}

// ============================================================================
// Queries
// ============================================================================

// FindBySessionKey returns the session with the exact key.
// A missing session yields domain.ErrDAppNotFound, meaning "not connected".
func (r *SessionRegistry) FindBySessionKey(ctx context.Context, key domain.SessionKey) (*domain.DApp, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	dapp, err := r.repo.Get(ctx, key)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrDAppNotFound
		}
		return nil, storageError(err)
	}
	return dapp, nil
}

// FindCurrentVault returns the current vault of the session located by
// session id alone. Origin is not checked on this path. When several origins
// share the session id, the most recently updated session wins.
func (r *SessionRegistry) FindCurrentVault(ctx context.Context, sessionID string) (domain.VaultRef, error) {
	if sessionID == "" {
		return domain.VaultRef{}, domain.ErrMissingArgument.WithDetails("session_id is required")
	}

	dapps, err := r.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return domain.VaultRef{}, storageError(err)
	}
	if len(dapps) == 0 {
		return domain.VaultRef{}, domain.ErrDAppNotFound
	}

	latest := dapps[0]
	for _, d := range dapps[1:] {
		if d.UpdatedAt > latest.UpdatedAt {
			latest = d
		}
	}
	return latest.CurrentVault, nil
}

// Accounts returns the addresses of every vault bound to the session.
func (r *SessionRegistry) Accounts(ctx context.Context, key domain.SessionKey) ([]string, error) {
	dapp, err := r.FindBySessionKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return dapp.Addresses(), nil
}

// State reports whether the session exists.
func (r *SessionRegistry) State(ctx context.Context, key domain.SessionKey) (bool, error) {
	_, err := r.FindBySessionKey(ctx, key)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ============================================================================
// Removal
// ============================================================================

// Delete removes the session. Deleting a missing session succeeds.
func (r *SessionRegistry) Delete(ctx context.Context, key domain.SessionKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	if err := r.repo.Delete(ctx, key); err != nil && !domain.IsNotFound(err) {
		return storageError(err)
	}
	return nil
}

// storageError passes domain errors through and wraps anything else.
func storageError(err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
