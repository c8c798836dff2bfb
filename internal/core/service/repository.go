package service

import (
	"context"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// DAppRepository defines the storage interface for dapp sessions.
//
// Implementations must enforce uniqueness of the session key: Create returns
// domain.ErrDAppConflict when a session with the same key already exists.
type DAppRepository interface {
	// Get retrieves a session by its key.
	Get(ctx context.Context, key domain.SessionKey) (*domain.DApp, error)

	// FindBySessionID returns every session sharing the session id,
	// regardless of origin.
	FindBySessionID(ctx context.Context, sessionID string) ([]*domain.DApp, error)

	// Create stores a new session.
	Create(ctx context.Context, dapp *domain.DApp) error

	// Update replaces a session (with optimistic locking).
	Update(ctx context.Context, dapp *domain.DApp, expectedVersion uint64) error

	// Delete removes a session by key. Returns domain.ErrDAppNotFound if absent.
	Delete(ctx context.Context, key domain.SessionKey) error
}

// VaultDirectory resolves vaults. The core never creates vaults.
type VaultDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.Vault, error)
	FindByAddress(ctx context.Context, address string) (*domain.Vault, error)
}

// UserDirectory resolves users by wallet address.
type UserDirectory interface {
	FindByAddress(ctx context.Context, address string) (*domain.User, error)
}

// TransactionFilter defines filter criteria for transaction queries.
type TransactionFilter struct {
	Statuses     []domain.TransactionStatus
	VaultAddress string
	Limit        int // 0 means no limit
}

// TransactionRepository is the read side of the transaction subsystem.
type TransactionRepository interface {
	List(ctx context.Context, filter *TransactionFilter) ([]*domain.Transaction, error)
}

// RecoverCodeRepository stores issued recover codes.
type RecoverCodeRepository interface {
	// Create stores a code. Returns domain.ErrRecoverCodeConflict on a duplicate value.
	Create(ctx context.Context, code *domain.RecoverCode) error

	// Get retrieves a code by value.
	Get(ctx context.Context, code string) (*domain.RecoverCode, error)
}

// Publisher pushes a message to every subscriber of a room.
type Publisher interface {
	Publish(ctx context.Context, room string, msg *domain.Message) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
