package domain

import (
	"time"

	"github.com/yndnr/vaultlink-go/pkg/token"
)

// Recover code constants.
const (
	// RecoverCodePrefix marks recover code values (sensitive, redacted in logs).
	RecoverCodePrefix = "vlrc_"

	// RecoverCodeBytesLength is the number of random bytes per code.
	RecoverCodeBytesLength = 16

	// RecoverCodeLength is the total code length (prefix + 22 base64url chars).
	RecoverCodeLength = 5 + 22

	// RecoverCodeValidity is the fixed validity window of a connector code.
	RecoverCodeValidity = 2 * time.Minute

	// RecoverCodeRetention is how long a store keeps a code after it
	// expires, so lookups keep reporting expiry rather than not-found.
	RecoverCodeRetention = 24 * time.Hour
)

// RecoverCodeType tags what a code may be used for.
type RecoverCodeType string

const (
	// RecoverCodeTxConnector hands a pending transaction from a dapp to a wallet.
	RecoverCodeTxConnector RecoverCodeType = "TX_CONNECTOR"
)

// RecoverCodeVault is the vault snapshot carried in code metadata.
type RecoverCodeVault struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Name    string `json:"name"`
}

// RecoverCodeMetadata is the payload that crosses the device boundary.
type RecoverCodeMetadata struct {
	// Uses counts redemptions. Nothing increments it yet.
	Uses  int              `json:"uses"`
	TxID  string           `json:"txId"`
	Vault RecoverCodeVault `json:"vault"`
}

// RecoverCode is a short-lived code binding {owner, vault, transaction}.
type RecoverCode struct {
	Code      string              `json:"code"`
	Owner     string              `json:"owner,omitempty"`
	Type      RecoverCodeType     `json:"type"`
	Origin    string              `json:"origin"`
	CreatedAt time.Time           `json:"created_at"`
	ValidAt   time.Time           `json:"valid_at"`
	Metadata  RecoverCodeMetadata `json:"metadata"`
}

// NewRecoverCode mints a connector code valid for RecoverCodeValidity from now.
func NewRecoverCode(owner, origin, txID string, vault *Vault, now time.Time) (*RecoverCode, error) {
	code, err := GenerateRecoverCode()
	if err != nil {
		return nil, err
	}

	return &RecoverCode{
		Code:      code,
		Owner:     owner,
		Type:      RecoverCodeTxConnector,
		Origin:    origin,
		CreatedAt: now,
		ValidAt:   now.Add(RecoverCodeValidity),
		Metadata: RecoverCodeMetadata{
			Uses: 0,
			TxID: txID,
			Vault: RecoverCodeVault{
				ID:      vault.ID,
				Address: vault.Address,
				Name:    vault.Name,
			},
		},
	}, nil
}

// GenerateRecoverCode returns a fresh code value from the CSPRNG.
func GenerateRecoverCode() (string, error) {
	code, err := token.Generate(RecoverCodePrefix, RecoverCodeBytesLength)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return code, nil
}

// ValidateRecoverCodeFormat checks prefix, length and encoding of a code.
func ValidateRecoverCodeFormat(code string) bool {
	return token.Valid(code, RecoverCodePrefix, RecoverCodeBytesLength)
}

// IsExpired reports whether now is past the validity window.
// A code is still usable at exactly ValidAt.
func (c *RecoverCode) IsExpired(now time.Time) bool {
	return now.After(c.ValidAt)
}

// Clone creates a copy of the code.
func (c *RecoverCode) Clone() *RecoverCode {
	clone := *c
	return &clone
}
