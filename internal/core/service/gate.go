package service

import (
	"context"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// TransactionGate reports whether a vault still has transactions waiting
// for signatures. It never writes.
type TransactionGate struct {
	txs TransactionRepository
}

// NewTransactionGate creates a new TransactionGate.
func NewTransactionGate(txs TransactionRepository) *TransactionGate {
	return &TransactionGate{txs: txs}
}

// HasPendingRequirements returns true iff at least one transaction of the
// vault is in domain.StatusAwaitRequirements.
func (g *TransactionGate) HasPendingRequirements(ctx context.Context, vaultAddress string) (bool, error) {
	if vaultAddress == "" {
		return false, domain.ErrMissingArgument.WithDetails("vault address is required")
	}

	txs, err := g.txs.List(ctx, &TransactionFilter{
		Statuses:     []domain.TransactionStatus{domain.StatusAwaitRequirements},
		VaultAddress: vaultAddress,
		Limit:        1,
	})
	if err != nil {
		return false, storageError(err)
	}

	for _, tx := range txs {
		if tx.VaultAddress == vaultAddress && tx.Status == domain.StatusAwaitRequirements {
			return true, nil
		}
	}
	return false, nil
}
