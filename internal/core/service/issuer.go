package service

import (
	"context"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// maxIssueAttempts bounds regeneration when a fresh code collides with a stored one.
const maxIssueAttempts = 3

// RecoverCodeIssuer mints connector codes that hand a pending transaction
// from the requesting dapp to an approving wallet.
type RecoverCodeIssuer struct {
	codes  RecoverCodeRepository
	vaults VaultDirectory
	clock  Clock
}

// NewRecoverCodeIssuer creates a new RecoverCodeIssuer.
func NewRecoverCodeIssuer(codes RecoverCodeRepository, vaults VaultDirectory, clock Clock) *RecoverCodeIssuer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RecoverCodeIssuer{
		codes:  codes,
		vaults: vaults,
		clock:  clock,
	}
}

// IssueCodeRequest contains parameters for code issuance.
type IssueCodeRequest struct {
	Owner        string // Optional user id
	VaultAddress string // Required
	TxID         string // Required
	Origin       string
}

// Validate checks the request once at the boundary.
func (r *IssueCodeRequest) Validate() error {
	if r.VaultAddress == "" {
		return domain.ErrMissingArgument.WithDetails("vault address is required")
	}
	if r.TxID == "" {
		return domain.ErrMissingArgument.WithDetails("transaction id is required")
	}
	return nil
}

// Issue resolves the vault by address and stores a new code valid for
// domain.RecoverCodeValidity.
func (i *RecoverCodeIssuer) Issue(ctx context.Context, req *IssueCodeRequest) (*domain.RecoverCode, error) {
	// 1. Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Resolve vault
	vault, err := i.vaults.FindByAddress(ctx, req.VaultAddress)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrVaultNotFound.WithDetails(req.VaultAddress)
		}
		return nil, storageError(err)
	}

	// 3. Mint and persist
	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := domain.NewRecoverCode(req.Owner, req.Origin, req.TxID, vault, i.clock.Now())
		if err != nil {
			return nil, err
		}

		err = i.codes.Create(ctx, code)
		if err == nil {
			return code, nil
		}
		if !domain.IsConflict(err) {
			return nil, storageError(err)
		}
		lastErr = err
	}
	return nil, domain.ErrInternalServer.WithCause(lastErr)
}

// Lookup returns a stored code that has not expired. Uses is left untouched.
func (i *RecoverCodeIssuer) Lookup(ctx context.Context, code string) (*domain.RecoverCode, error) {
	if !domain.ValidateRecoverCodeFormat(code) {
		return nil, domain.ErrRecoverCodeValidation.WithDetails("malformed code")
	}

	rc, err := i.codes.Get(ctx, code)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrRecoverCodeNotFound
		}
		return nil, storageError(err)
	}

	if rc.IsExpired(i.clock.Now()) {
		return nil, domain.ErrRecoverCodeExpired
	}
	return rc, nil
}
