package account

import "github.com/iotaledger/wallet.go/common"

// Confirmation is the tri-valued confirmation state of a Message (§3, §4.9).
// Confirmed is terminal for caching purposes: a confirmed message is never
// re-fetched.
type Confirmation int

const (
	ConfirmationUnknown Confirmation = iota
	ConfirmationConfirmed
	ConfirmationConflicting
)

// TxInput and TxOutput are the resolved essence-level legs of a
// Transaction payload, kept minimal: enough for the Reconciler and Event
// Diff to resolve inputs by OutputID and outputs by destination address.
type TxInput struct {
	OutputID common.OutputID
}

type TxOutput struct {
	Address common.AddressRef
	Amount  uint64
	Kind    common.OutputKind
}

// Transaction is the payload carried by a Message when it represents a
// value transfer (spec §3: "Message { id, payload?: Transaction | ... }").
type Transaction struct {
	ID      common.TransactionID
	Inputs  []TxInput
	Outputs []TxOutput
}

// Message is the local cache of a ledger message.
type Message struct {
	ID        common.MessageID
	Payload   *Transaction // nil for non-transaction payloads
	Confirmed Confirmation
}

// IsAuthoritative reports whether this cached message may be trusted
// without a re-fetch: only confirmed messages are authoritative (§3).
func (m *Message) IsAuthoritative() bool {
	return m.Confirmed == ConfirmationConfirmed
}
