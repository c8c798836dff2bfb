package domain

import "encoding/json"

// TransactionStatus is owned and transitioned by the transaction subsystem.
type TransactionStatus string

// Transaction statuses. Only StatusAwaitRequirements is interpreted here.
const (
	// StatusAwaitRequirements means the transaction has not yet collected
	// enough signatures to execute.
	StatusAwaitRequirements TransactionStatus = "AWAIT_REQUIREMENTS"
	StatusPendingSender     TransactionStatus = "PENDING_SENDER"
	StatusProcessOnChain    TransactionStatus = "PROCESS_ON_CHAIN"
	StatusSuccess           TransactionStatus = "SUCCESS"
	StatusFailed            TransactionStatus = "FAILED"
	StatusDeclined          TransactionStatus = "DECLINED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusAwaitRequirements, StatusPendingSender, StatusProcessOnChain,
		StatusSuccess, StatusFailed, StatusDeclined:
		return true
	}
	return false
}

// Transaction is a multisig transaction as reported by the vault subsystem.
type Transaction struct {
	Hash         string            `json:"hash"`
	Name         string            `json:"name"`
	VaultAddress string            `json:"vault_address"`
	Status       TransactionStatus `json:"status"`
	Payload      json.RawMessage   `json:"payload,omitempty"`
	CreatedAt    int64             `json:"created_at"`
}
