package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/core/service"
	"github.com/yndnr/vaultlink-go/pkg/cmap"
)

// Vaults is an in-memory vault directory indexed by id and address.
type Vaults struct {
	byID      *cmap.Map[*domain.Vault]
	byAddress *cmap.Map[*domain.Vault]
}

// NewVaults creates an empty vault directory.
func NewVaults() *Vaults {
	return &Vaults{
		byID:      cmap.New[*domain.Vault](),
		byAddress: cmap.New[*domain.Vault](),
	}
}

// Put adds or replaces a vault.
func (v *Vaults) Put(vault *domain.Vault) {
	c := *vault
	v.byID.Set(c.ID, &c)
	v.byAddress.Set(normalizeAddress(c.Address), &c)
}

// FindByID implements service.VaultDirectory.
func (v *Vaults) FindByID(_ context.Context, id string) (*domain.Vault, error) {
	vault, ok := v.byID.Get(id)
	if !ok {
		return nil, domain.ErrVaultNotFound
	}
	c := *vault
	return &c, nil
}

// FindByAddress implements service.VaultDirectory. Addresses compare
// case-insensitively.
func (v *Vaults) FindByAddress(_ context.Context, address string) (*domain.Vault, error) {
	vault, ok := v.byAddress.Get(normalizeAddress(address))
	if !ok {
		return nil, domain.ErrVaultNotFound
	}
	c := *vault
	return &c, nil
}

// Users is an in-memory user directory indexed by address.
type Users struct {
	byAddress *cmap.Map[*domain.User]
}

// NewUsers creates an empty user directory.
func NewUsers() *Users {
	return &Users{byAddress: cmap.New[*domain.User]()}
}

// Put adds or replaces a user.
func (u *Users) Put(user *domain.User) {
	c := *user
	u.byAddress.Set(normalizeAddress(c.Address), &c)
}

// FindByAddress implements service.UserDirectory.
func (u *Users) FindByAddress(_ context.Context, address string) (*domain.User, error) {
	user, ok := u.byAddress.Get(normalizeAddress(address))
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

// Transactions is an in-memory transaction read model keyed by hash.
type Transactions struct {
	byHash *cmap.Map[*domain.Transaction]
}

// NewTransactions creates an empty transaction store.
func NewTransactions() *Transactions {
	return &Transactions{byHash: cmap.New[*domain.Transaction]()}
}

// Put adds or replaces a transaction.
func (t *Transactions) Put(tx *domain.Transaction) {
	c := *tx
	t.byHash.Set(c.Hash, &c)
}

// List implements service.TransactionRepository. Results are ordered by
// CreatedAt, oldest first.
func (t *Transactions) List(_ context.Context, filter *service.TransactionFilter) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	t.byHash.Range(func(_ string, tx *domain.Transaction) bool {
		if matchTransaction(tx, filter) {
			c := *tx
			out = append(out, &c)
		}
		return true
	})

	slices.SortFunc(out, func(a, b *domain.Transaction) int {
		if a.CreatedAt != b.CreatedAt {
			if a.CreatedAt < b.CreatedAt {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Hash, b.Hash)
	})

	if filter != nil && filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchTransaction(tx *domain.Transaction, filter *service.TransactionFilter) bool {
	if filter == nil {
		return true
	}
	if filter.VaultAddress != "" && tx.VaultAddress != filter.VaultAddress {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, tx.Status) {
		return false
	}
	return true
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
