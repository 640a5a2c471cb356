// Package signer defines the Signer collaborator (§6) consumed by the
// Scanner and Transfer Builder, plus a deterministic software reference
// implementation and a simulated hardware-wallet implementation used to
// exercise the capability-based branching §9 calls for ("the core never
// branches on concrete signer identity except via this capability").
package signer

import (
	"context"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
)

// DeriveOptions mirrors the signer.derive(...) collaborator signature
// (§6): Syncing suppresses hardware-wallet user prompts.
type DeriveOptions struct {
	Syncing bool
	Network string
}

// InputMeta identifies which account key signs a given essence input.
type InputMeta struct {
	AddressIndex uint32
	Internal     bool
}

// SignMetadata carries context the Signer may need to render a
// hardware-wallet confirmation screen.
type SignMetadata struct {
	Network string
}

// Signer is the external collaborator that derives addresses and
// produces unlock blocks. Capability() is the polymorphic trait §9 calls
// for: the core never branches on concrete signer identity, only on the
// combined inputs+outputs envelope it reports.
type Signer interface {
	Derive(ctx context.Context, index uint32, internal bool, bech32HRP string, opts DeriveOptions) (common.AddressRef, error)
	Sign(ctx context.Context, ess *essence.Essence, inputs []InputMeta, metadata SignMetadata) ([]essence.UnlockBlock, error)
	Capability() Capability
}

// Capability reports what a signer backend can handle, letting the
// Selector and Transfer Builder size candidate sets without knowing
// whether they're talking to a software or hardware-wallet backend.
type Capability struct {
	// MaxInputsPlusOutputs bounds the combined cardinality of a single
	// signing call (17 for hardware wallets, the ledger-defined
	// INPUT_OUTPUT_COUNT_MAX for software, §6).
	MaxInputsPlusOutputs int
	// IsHardware flags the re-derivation-on-change-address dance (§4.5
	// step 3) and the address-mismatch-is-fatal rule (§7).
	IsHardware bool
}

// ErrSignerUnavailable is returned by Derive when the backing device
// cannot be reached (locked hardware wallet); the Scanner treats this as
// non-fatal and aborts only the current sweep (§4.2, §7).
type ErrSignerUnavailable struct{ Reason string }

func (e *ErrSignerUnavailable) Error() string { return "signer unavailable: " + e.Reason }
