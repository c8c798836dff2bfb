package domain

import "time"

// Notification targets and types understood by the dapp connector and wallet UI.
const (
	TargetConnector = "[CONNECTOR]"
	TargetUI        = "[UI]"

	MessageAuthConfirmed = "[AUTH_CONFIRMED]"
	MessageTxPending     = "[TX_PENDING]"
)

// Message is the payload pushed to every subscriber of a room.
// Rooms are named after the dapp session id.
type Message struct {
	Room string `json:"room"`
	To   string `json:"to"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event is a domain event emitted once per session state transition.
type Event interface {
	// Room returns the notification room the event belongs to.
	Room() string
	// Name returns a stable event name for logs and metrics.
	Name() string
}

// SessionBound is emitted when a connect created a session or moved its
// current vault.
type SessionBound struct {
	Key      SessionKey
	Vault    VaultRef
	Created  bool
	Switched bool
}

// Room implements Event.
func (e SessionBound) Room() string { return e.Key.SessionID }

// Name implements Event.
func (e SessionBound) Name() string { return "session_bound" }

// TransactionPending is emitted after a connector code was issued for a session.
type TransactionPending struct {
	Key       SessionKey
	Code      string
	ValidAt   time.Time
	TxBlocked bool
	Metadata  RecoverCodeMetadata
}

// Room implements Event.
func (e TransactionPending) Room() string { return e.Key.SessionID }

// Name implements Event.
func (e TransactionPending) Name() string { return "transaction_pending" }

// MessageFor converts an event into its notification envelope.
// It returns nil for events that have no push representation.
func MessageFor(ev Event) *Message {
	switch e := ev.(type) {
	case SessionBound:
		return &Message{
			Room: e.Room(),
			To:   TargetConnector,
			Type: MessageAuthConfirmed,
			Data: map[string]any{"connected": true},
		}
	case TransactionPending:
		return &Message{
			Room: e.Room(),
			To:   TargetUI,
			Type: MessageTxPending,
			Data: map[string]any{
				"code":       e.Code,
				"validAt":    e.ValidAt,
				"tx_blocked": e.TxBlocked,
				"uses":       e.Metadata.Uses,
				"txId":       e.Metadata.TxID,
				"vault":      e.Metadata.Vault,
			},
		}
	}
	return nil
}
