package signer

import (
	"context"
	"sync"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
	"github.com/iotaledger/wallet.go/params"
)

// Hardware simulates a hardware-wallet backend wrapping a Software
// deriver: same deterministic derivation, but gated by a Locked flag so
// tests can exercise the "signer unavailable mid-sweep" (§4.2, §7) and
// "syncing vs non-syncing re-derivation" (§4.5 step 3, §9) paths without a
// real USB device.
type Hardware struct {
	inner *Software

	mu     sync.Mutex
	Locked bool
}

// NewHardware wraps seed in a hardware-capability signer.
func NewHardware(seed []byte) *Hardware {
	return &Hardware{inner: NewSoftware(seed)}
}

// SetLocked toggles the simulated lock state.
func (h *Hardware) SetLocked(locked bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Locked = locked
}

// Derive implements Signer. opts.Syncing distinguishes a quiet
// gap-limit-sweep probe from a user-facing re-derivation that would flash
// the address on the device's screen (§4.5 step 3); the simulated backend
// doesn't need to behave differently by Syncing, but callers rely on the
// parameter being threaded through so device-display semantics transfer
// unchanged to a real backend.
func (h *Hardware) Derive(ctx context.Context, index uint32, internal bool, bech32HRP string, opts DeriveOptions) (common.AddressRef, error) {
	h.mu.Lock()
	locked := h.Locked
	h.mu.Unlock()
	if locked {
		return common.AddressRef{}, &ErrSignerUnavailable{Reason: "hardware wallet locked"}
	}
	return h.inner.Derive(ctx, index, internal, bech32HRP, opts)
}

// Sign implements Signer.
func (h *Hardware) Sign(ctx context.Context, ess *essence.Essence, inputs []InputMeta, metadata SignMetadata) ([]essence.UnlockBlock, error) {
	h.mu.Lock()
	locked := h.Locked
	h.mu.Unlock()
	if locked {
		return nil, &ErrSignerUnavailable{Reason: "hardware wallet locked"}
	}
	return h.inner.Sign(ctx, ess, inputs, metadata)
}

// Capability implements Signer: hardware wallets can only display and
// approve HardwareSignerMaxInputsPlusOutputs combined inputs+outputs per
// signing call (§6).
func (h *Hardware) Capability() Capability {
	return Capability{MaxInputsPlusOutputs: params.HardwareSignerMaxInputsPlusOutputs, IsHardware: true}
}
