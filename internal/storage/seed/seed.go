// Package seed loads vaults, users and transactions into a directory from a
// YAML file. Operators use it to bootstrap a standalone deployment; tests use
// it to populate fixtures.
//
//	vaults:
//	  - id: v1
//	    address: "0xaaa"
//	    name: Treasury
//	    provider: https://rpc.example
//	users:
//	  - id: u1
//	    address: "0xuser"
//	transactions:
//	  - hash: "0xt1"
//	    vault_address: "0xaaa"
//	    status: AWAIT_REQUIREMENTS
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/storage/memory"
	"github.com/yndnr/vaultlink-go/internal/storage/sqlite"
)

// File is the on-disk seed layout.
type File struct {
	Vaults       []Vault       `koanf:"vaults"`
	Users        []User        `koanf:"users"`
	Transactions []Transaction `koanf:"transactions"`
}

// Vault is one vault entry.
type Vault struct {
	ID       string `koanf:"id"`
	Address  string `koanf:"address"`
	Name     string `koanf:"name"`
	Provider string `koanf:"provider"`
}

// User is one user entry.
type User struct {
	ID      string `koanf:"id"`
	Address string `koanf:"address"`
}

// Transaction is one transaction entry. Payload is raw JSON text.
type Transaction struct {
	Hash         string `koanf:"hash"`
	Name         string `koanf:"name"`
	VaultAddress string `koanf:"vault_address"`
	Status       string `koanf:"status"`
	Payload      string `koanf:"payload"`
	CreatedAt    int64  `koanf:"created_at"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("seed: load %s: %w", path, err)
	}

	var f File
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("seed: unmarshal: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required fields and statuses. All problems are reported.
func (f *File) Validate() error {
	var errs []error
	for i, v := range f.Vaults {
		if v.ID == "" || v.Address == "" {
			errs = append(errs, fmt.Errorf("vaults[%d]: id and address are required", i))
		}
	}
	for i, u := range f.Users {
		if u.ID == "" || u.Address == "" {
			errs = append(errs, fmt.Errorf("users[%d]: id and address are required", i))
		}
	}
	for i, tx := range f.Transactions {
		if tx.Hash == "" || tx.VaultAddress == "" {
			errs = append(errs, fmt.Errorf("transactions[%d]: hash and vault_address are required", i))
		}
		if !domain.TransactionStatus(tx.Status).Valid() {
			errs = append(errs, fmt.Errorf("transactions[%d]: unknown status %q", i, tx.Status))
		}
		if tx.Payload != "" && !json.Valid([]byte(tx.Payload)) {
			errs = append(errs, fmt.Errorf("transactions[%d]: payload is not valid JSON", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("seed: %w", errors.Join(errs...))
	}
	return nil
}

// Target receives seeded entities.
type Target struct {
	Vault       func(ctx context.Context, v *domain.Vault) error
	User        func(ctx context.Context, u *domain.User) error
	Transaction func(ctx context.Context, tx *domain.Transaction) error
}

// Counts reports how many entities were applied.
type Counts struct {
	Vaults       int
	Users        int
	Transactions int
}

// Apply writes every entity of f into t, stopping at the first error.
func Apply(ctx context.Context, f *File, t Target) (Counts, error) {
	var c Counts
	for _, v := range f.Vaults {
		if err := t.Vault(ctx, &domain.Vault{ID: v.ID, Address: v.Address, Name: v.Name, Provider: v.Provider}); err != nil {
			return c, fmt.Errorf("seed: vault %s: %w", v.ID, err)
		}
		c.Vaults++
	}
	for _, u := range f.Users {
		if err := t.User(ctx, &domain.User{ID: u.ID, Address: u.Address}); err != nil {
			return c, fmt.Errorf("seed: user %s: %w", u.ID, err)
		}
		c.Users++
	}
	for _, tx := range f.Transactions {
		dtx := &domain.Transaction{
			Hash:         tx.Hash,
			Name:         tx.Name,
			VaultAddress: tx.VaultAddress,
			Status:       domain.TransactionStatus(tx.Status),
			CreatedAt:    tx.CreatedAt,
		}
		if tx.Payload != "" {
			dtx.Payload = json.RawMessage(tx.Payload)
		}
		if err := t.Transaction(ctx, dtx); err != nil {
			return c, fmt.Errorf("seed: transaction %s: %w", tx.Hash, err)
		}
		c.Transactions++
	}
	return c, nil
}

// MemoryTarget seeds in-memory directories.
func MemoryTarget(vaults *memory.Vaults, users *memory.Users, txs *memory.Transactions) Target {
	return Target{
		Vault:       func(_ context.Context, v *domain.Vault) error { vaults.Put(v); return nil },
		User:        func(_ context.Context, u *domain.User) error { users.Put(u); return nil },
		Transaction: func(_ context.Context, tx *domain.Transaction) error { txs.Put(tx); return nil },
	}
}

// SQLiteTarget seeds a sqlite directory.
func SQLiteTarget(s *sqlite.Store) Target {
	return Target{
		Vault:       s.Vaults().Put,
		User:        s.Users().Put,
		Transaction: s.Transactions().Put,
	}
}
