// Package walleterr implements the §7 error taxonomy as typed errors,
// following the teacher's package-level sentinel-error convention
// (node/sc/bridge_tx_pool.go: ErrKnownTx, ErrUnknownTx, ErrDuplicatedNonceTx)
// but carrying structured fields where the spec calls for them
// (InsufficientFunds(have, want), TooManyOutputs(count, max), ...).
package walleterr

import (
	"errors"
	"fmt"
)

// Sentinel errors with no payload, mirroring the teacher's bare
// errors.New(...) package vars.
var (
	ErrInputAddressNotFound    = errors.New("input address not found")
	ErrFailedToGetRemainder    = errors.New("failed to get remainder address")
	ErrInvalidRemainderAddress = errors.New("remainder value address is not owned by the account")
	ErrLedgerMnemonicMismatch  = errors.New("ledger re-derived address does not match the original derivation")
	ErrMissingUnlockBlock      = errors.New("missing unlock block for input")
	ErrMessageNotFound         = errors.New("message not found")
	ErrNoNeedPromoteOrReattach = errors.New("no need to promote or reattach")
	ErrPinnedInputUnavailable  = errors.New("pinned input is unknown, already spent, or already locked")
)

// InsufficientFunds is returned when the filtered candidate value, or the
// account balance, cannot cover the requested transfer amount.
type InsufficientFunds struct {
	Have uint64
	Want uint64
}

func (e *InsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: have %d, want %d", e.Have, e.Want)
}

// TooManyOutputs is returned when a transfer's destination count already
// exceeds the active signer's combined inputs+outputs envelope.
type TooManyOutputs struct {
	Count int
	Max   int
}

func (e *TooManyOutputs) Error() string {
	return fmt.Sprintf("too many outputs: %d exceeds max %d", e.Count, e.Max)
}

// InvalidOutputKind is returned when a transfer requests an output kind the
// builder may not create directly (Treasury).
type InvalidOutputKind struct {
	Kind string
}

func (e *InvalidOutputKind) Error() string {
	return fmt.Sprintf("invalid output kind: %s", e.Kind)
}

// DustError is returned when the forward-simulated dust predicate (§4.6)
// rejects the transaction at the given address.
type DustError struct {
	Address string
}

func (e *DustError) Error() string {
	return fmt.Sprintf("dust protection: transaction would leave a disallowed dust pattern at %s", e.Address)
}

// ClientError wraps a Node-collaborator failure without losing the
// underlying cause, matching the teacher's habit of wrapping RPC errors
// rather than discarding them.
type ClientError struct {
	Inner error
}

func (e *ClientError) Error() string { return fmt.Sprintf("client error: %v", e.Inner) }
func (e *ClientError) Unwrap() error { return e.Inner }
