// Package sqlite provides the SQLite-backed vault, user and transaction
// directory read by the core services.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/core/service"
	"github.com/yndnr/vaultlink-go/internal/infra/sqlitemigrate"
	"github.com/yndnr/vaultlink-go/internal/storage/sqlite/migrations"
)

// Store is a SQLite directory database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies embedded migrations.
// The path ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	dsn := ":memory:"
	if path != dsn {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, db, migrations.FS, ""); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Vaults returns the vault directory view.
func (s *Store) Vaults() *VaultDirectory { return &VaultDirectory{db: s.db} }

// Users returns the user directory view.
func (s *Store) Users() *UserDirectory { return &UserDirectory{db: s.db} }

// Transactions returns the transaction read model view.
func (s *Store) Transactions() *TransactionLog { return &TransactionLog{db: s.db} }

// VaultDirectory implements service.VaultDirectory.
type VaultDirectory struct {
	db *sql.DB
}

const vaultColumns = `id, address, name, provider`

func scanVault(row *sql.Row) (*domain.Vault, error) {
	var v domain.Vault
	if err := row.Scan(&v.ID, &v.Address, &v.Name, &v.Provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return &v, nil
}

// FindByID returns the vault with id.
func (d *VaultDirectory) FindByID(ctx context.Context, id string) (*domain.Vault, error) {
	return scanVault(d.db.QueryRowContext(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE id = ?`, id))
}

// FindByAddress returns the vault at address, compared case-insensitively.
func (d *VaultDirectory) FindByAddress(ctx context.Context, address string) (*domain.Vault, error) {
	return scanVault(d.db.QueryRowContext(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE address = ? COLLATE NOCASE`, address))
}

// Put inserts or replaces a vault.
func (d *VaultDirectory) Put(ctx context.Context, v *domain.Vault) error {
	if v.ID == "" || v.Address == "" {
		return domain.ErrMissingArgument.WithDetails("vault id and address are required")
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO vaults (id, address, name, provider) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET address = excluded.address, name = excluded.name, provider = excluded.provider`,
		v.ID, v.Address, v.Name, v.Provider)
	return wrapWrite(err, "vault address already registered")
}

// UserDirectory implements service.UserDirectory.
type UserDirectory struct {
	db *sql.DB
}

// FindByAddress returns the user owning address.
func (d *UserDirectory) FindByAddress(ctx context.Context, address string) (*domain.User, error) {
	var u domain.User
	err := d.db.QueryRowContext(ctx,
		`SELECT id, address FROM users WHERE address = ? COLLATE NOCASE`, address).
		Scan(&u.ID, &u.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return &u, nil
}

// Put inserts or replaces a user.
func (d *UserDirectory) Put(ctx context.Context, u *domain.User) error {
	if u.ID == "" || u.Address == "" {
		return domain.ErrMissingArgument.WithDetails("user id and address are required")
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, address) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET address = excluded.address`,
		u.ID, u.Address)
	return wrapWrite(err, "user address already registered")
}

// TransactionLog implements service.TransactionRepository.
type TransactionLog struct {
	db *sql.DB
}

// List returns transactions matching filter, oldest first.
func (l *TransactionLog) List(ctx context.Context, filter *service.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT hash, name, vault_address, status, payload, created_at FROM transactions`
	var (
		where []string
		args  []any
	)
	if filter != nil {
		if filter.VaultAddress != "" {
			where = append(where, "vault_address = ?")
			args = append(args, filter.VaultAddress)
		}
		if len(filter.Statuses) > 0 {
			marks := make([]string, len(filter.Statuses))
			for i, st := range filter.Statuses {
				marks[i] = "?"
				args = append(args, string(st))
			}
			where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, hash"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var (
			tx      domain.Transaction
			status  string
			payload []byte
		)
		if err := rows.Scan(&tx.Hash, &tx.Name, &tx.VaultAddress, &status, &payload, &tx.CreatedAt); err != nil {
			return nil, domain.ErrStorageError.WithCause(err)
		}
		tx.Status = domain.TransactionStatus(status)
		if len(payload) > 0 {
			tx.Payload = payload
		}
		out = append(out, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return out, nil
}

// Put inserts or replaces a transaction.
func (l *TransactionLog) Put(ctx context.Context, tx *domain.Transaction) error {
	if tx.Hash == "" || tx.VaultAddress == "" {
		return domain.ErrMissingArgument.WithDetails("transaction hash and vault address are required")
	}
	if !tx.Status.Valid() {
		return domain.ErrInvalidArgument.WithDetails("unknown transaction status " + string(tx.Status))
	}
	var payload []byte
	if len(tx.Payload) > 0 {
		payload = tx.Payload
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO transactions (hash, name, vault_address, status, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET name = excluded.name, vault_address = excluded.vault_address,
		   status = excluded.status, payload = excluded.payload, created_at = excluded.created_at`,
		tx.Hash, tx.Name, tx.VaultAddress, string(tx.Status), payload, tx.CreatedAt)
	return wrapWrite(err, "")
}

func wrapWrite(err error, uniqueDetail string) error {
	if err == nil {
		return nil
	}
	if uniqueDetail != "" && isUniqueViolation(err) {
		return domain.ErrInvalidArgument.WithDetails(uniqueDetail)
	}
	return domain.ErrStorageError.WithCause(err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
