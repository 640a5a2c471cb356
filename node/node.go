// Package node defines the Node collaborator (§6): the external RPC
// surface the Syncer, Reconciler, Transfer Builder and Repost Engine
// consume. Only the interface lives in this module; the real
// implementation (HTTP/MQTT client, PoW, tip selection) is an external
// collaborator per §1.
package node

import (
	"context"
	"errors"

	"github.com/iotaledger/wallet.go/common"
)

// ErrNotFound is returned for a 404 on an output, message, or inclusion
// lookup (§4.3 step 4, §4.8): "A 404 on a message -> treat as absent"; "a
// 404 on an output -> treat as pruned".
var ErrNotFound = errors.New("node: not found")

// OutputsOptions parametrizes Outputs (§4.3 step 1).
type OutputsOptions struct {
	IncludeSpent bool
}

// OutputResponse is the node's view of a single output.
type OutputResponse struct {
	OutputID  common.OutputID
	Amount    uint64
	Kind      common.OutputKind
	MessageID common.MessageID
	Address   common.AddressRef
	IsSpent   bool
}

// Confirmation mirrors the tri-valued confirmation state at the wire
// level, translated into account.Confirmation by the Reconciler.
type Confirmation int

const (
	ConfirmationUnknown Confirmation = iota
	ConfirmationConfirmed
	ConfirmationConflicting
)

// TxInput/TxOutput are the wire-level legs of a transaction payload.
type TxInput struct{ OutputID common.OutputID }
type TxOutput struct {
	Address common.AddressRef
	Amount  uint64
	Kind    common.OutputKind
}

// TransactionPayload is the wire-level transaction body of a message.
type TransactionPayload struct {
	ID      common.TransactionID
	Inputs  []TxInput
	Outputs []TxOutput
}

// MessageResponse is the node's view of a message.
type MessageResponse struct {
	ID          common.MessageID
	Transaction *TransactionPayload // nil for non-transaction payloads
	Confirmed   Confirmation
}

// BalanceResponse answers balance(address) (§6).
type BalanceResponse struct {
	Balance     uint64
	DustAllowed bool
}

// RepostAction selects which RPC Repost (§4.8) invokes.
type RepostAction int

const (
	ActionRetry RepostAction = iota
	ActionReattach
	ActionPromote
)

// Node is the external collaborator interface (§6), consumed — never
// implemented — by this module's core subsystems.
type Node interface {
	Outputs(ctx context.Context, address common.AddressRef, opts OutputsOptions) ([]common.OutputID, error)
	GetOutput(ctx context.Context, id common.OutputID) (*OutputResponse, error)
	GetMessage(ctx context.Context, id common.MessageID) (*MessageResponse, error)
	Balance(ctx context.Context, address common.AddressRef) (*BalanceResponse, error)
	PostMessage(ctx context.Context, msg *MessageResponse) (common.MessageID, error)
	Repost(ctx context.Context, action RepostAction, id common.MessageID) (common.MessageID, *MessageResponse, error)
	GetIncludedMessage(ctx context.Context, txID common.TransactionID) (*MessageResponse, error)
	NetworkInfo(ctx context.Context) (bech32HRP string, err error)
	RetryUntilIncluded(ctx context.Context, id common.MessageID) ([]*MessageResponse, error)
}
