package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DApp session constraints.
const (
	MaxSessionIDLength = 128
	MaxOriginLength    = 512
	MaxNameLength      = 256

	// DAppIDPrefix is the prefix for internal dapp record IDs.
	DAppIDPrefix = "vlda-"
)

// SessionKey is the unique identity of a dapp session.
// The session id is issued by the connecting page, the origin by the browser.
type SessionKey struct {
	SessionID string `json:"session_id"`
	Origin    string `json:"origin"`
}

// String returns the composite storage key. The NUL separator cannot
// appear in either part, so keys sharing a session id share a prefix.
func (k SessionKey) String() string {
	return k.SessionID + "\x00" + k.Origin
}

// Validate checks both parts of the key are present and bounded.
func (k SessionKey) Validate() error {
	var violations []string
	if k.SessionID == "" {
		violations = append(violations, "session_id is required")
	}
	if k.Origin == "" {
		violations = append(violations, "origin is required")
	}
	if len(k.SessionID) > MaxSessionIDLength {
		violations = append(violations, "session_id exceeds 128 characters")
	}
	if len(k.Origin) > MaxOriginLength {
		violations = append(violations, "origin exceeds 512 characters")
	}
	if strings.ContainsRune(k.SessionID, 0) || strings.ContainsRune(k.Origin, 0) {
		violations = append(violations, "key contains NUL byte")
	}
	if len(violations) > 0 {
		return ErrMissingArgument.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// DApp is a browser session bound to a set of vaults with one current vault.
type DApp struct {
	// ID is the internal record identifier, format vlda-{ulid_lowercase}.
	ID string `json:"id"`

	SessionID string `json:"session_id"`
	Origin    string `json:"origin"`

	// Name is an optional display name supplied by the dapp.
	Name string `json:"name"`

	// Vaults is the set of bound vaults. Order carries no meaning.
	Vaults []VaultRef `json:"vaults"`

	// CurrentVault is always an element of Vaults.
	CurrentVault VaultRef `json:"current_vault"`

	// UserID is the owning user, empty until a user authenticates.
	UserID string `json:"user_id,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// Version is the optimistic lock version number.
	Version uint64 `json:"version"`
}

// NewDApp creates a session bound to a single vault, which becomes current.
func NewDApp(key SessionKey, vault VaultRef, now time.Time) (*DApp, error) {
	id, err := GenerateDAppID(now)
	if err != nil {
		return nil, err
	}

	ms := now.UnixMilli()
	return &DApp{
		ID:           id,
		SessionID:    key.SessionID,
		Origin:       key.Origin,
		Vaults:       []VaultRef{vault},
		CurrentVault: vault,
		CreatedAt:    ms,
		UpdatedAt:    ms,
		Version:      1,
	}, nil
}

// GenerateDAppID generates a new record ID using ULID.
func GenerateDAppID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return DAppIDPrefix + strings.ToLower(id.String()), nil
}

// Key returns the session's unique identity.
func (d *DApp) Key() SessionKey {
	return SessionKey{SessionID: d.SessionID, Origin: d.Origin}
}

// HasVault reports whether the vault id is bound to the session.
func (d *DApp) HasVault(vaultID string) bool {
	for _, v := range d.Vaults {
		if v.ID == vaultID {
			return true
		}
	}
	return false
}

// Bind adds the vault to the bound set if missing and makes it current.
// It reports whether the current vault changed.
func (d *DApp) Bind(vault VaultRef, now time.Time) (switched bool) {
	if !d.HasVault(vault.ID) {
		d.Vaults = append(d.Vaults, vault)
	}
	switched = d.CurrentVault.ID != vault.ID
	d.CurrentVault = vault
	d.UpdatedAt = now.UnixMilli()
	return switched
}

// Addresses returns the addresses of all bound vaults.
func (d *DApp) Addresses() []string {
	out := make([]string, 0, len(d.Vaults))
	for _, v := range d.Vaults {
		out = append(out, v.Address)
	}
	return out
}

// CheckInvariant verifies the current vault is one of the bound vaults
// and that the bound set has no duplicates.
func (d *DApp) CheckInvariant() error {
	seen := make(map[string]struct{}, len(d.Vaults))
	for _, v := range d.Vaults {
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("dapp %s: vault %s bound twice", d.ID, v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	if _, ok := seen[d.CurrentVault.ID]; !ok {
		return fmt.Errorf("dapp %s: current vault %s is not bound", d.ID, d.CurrentVault.ID)
	}
	return nil
}

// Validate validates the session fields against constraints.
func (d *DApp) Validate() error {
	var violations []string

	if err := d.Key().Validate(); err != nil {
		violations = append(violations, err.(*DomainError).Details)
	}
	if len(d.Name) > MaxNameLength {
		violations = append(violations, "name exceeds 256 characters")
	}
	if len(d.Vaults) == 0 {
		violations = append(violations, "at least one vault is required")
	}
	for _, v := range d.Vaults {
		if v.ID == "" {
			violations = append(violations, "vault id is required")
			break
		}
	}

	if len(violations) > 0 {
		return ErrDAppValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// IncrVersion increments the version number for optimistic locking.
func (d *DApp) IncrVersion() {
	d.Version++
}

// Clone creates a deep copy of the session.
func (d *DApp) Clone() *DApp {
	clone := *d
	if d.Vaults != nil {
		clone.Vaults = make([]VaultRef, len(d.Vaults))
		copy(clone.Vaults, d.Vaults)
	}
	return &clone
}

// UpdatedAtTime returns UpdatedAt as time.Time.
func (d *DApp) UpdatedAtTime() time.Time {
	return time.UnixMilli(d.UpdatedAt)
}
