package account

import (
	"sync"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/params"
)

// AddressOutput is the local cache of a single ledger output, mirroring §3.
// Once IsSpent is true it must never be reset (invariant §3, §4.9).
type AddressOutput struct {
	TransactionID common.TransactionID
	Index         uint16
	Amount        uint64
	Kind          common.OutputKind
	IsSpent       bool
	MessageID     common.MessageID
	Address       common.AddressRef
}

// ID returns the OutputID key this output is cached under.
func (o *AddressOutput) ID() common.OutputID {
	return common.OutputID{TransactionID: o.TransactionID, Index: o.Index}
}

// BalanceBreakdown separates Single from DustAllowance totals, recovered
// from original_source's Address.balance() split (SPEC_FULL.md supplement 4)
// so the Dust Admission predicate doesn't re-derive the split inline.
type BalanceBreakdown struct {
	Single        uint64
	DustAllowance uint64
	DustCount     int // unspent Single outputs with Amount < DustAllowanceValue
}

func (b BalanceBreakdown) Total() uint64 { return b.Single + b.DustAllowance }

// Address is a single derived key in one of the two BIP-44-style spaces
// (external/change). Identity is (KeyIndex, Internal) within an Account;
// addresses are never deleted (§3, §4.9).
type Address struct {
	KeyIndex uint32
	Internal bool
	Ref      common.AddressRef

	mu      sync.RWMutex
	outputs map[common.OutputID]*AddressOutput
}

// NewAddress constructs a freshly generated, unused address.
func NewAddress(keyIndex uint32, internal bool, ref common.AddressRef) *Address {
	return &Address{
		KeyIndex: keyIndex,
		Internal: internal,
		Ref:      ref,
		outputs:  make(map[common.OutputID]*AddressOutput),
	}
}

// Upsert inserts or overwrites a cached output. Callers must never flip
// IsSpent from true back to false (§3 invariant); Upsert enforces it.
func (a *Address) Upsert(out *AddressOutput) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.outputs[out.ID()]; ok && existing.IsSpent {
		out.IsSpent = true
	}
	a.outputs[out.ID()] = out
}

// MarkSpent flips an already-cached output to spent (prune inference, §4.3
// step 2, or an explicit node report). No-op if the output isn't cached.
func (a *Address) MarkSpent(id common.OutputID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if out, ok := a.outputs[id]; ok {
		out.IsSpent = true
	}
}

// Output returns the cached output for id, if any.
func (a *Address) Output(id common.OutputID) (*AddressOutput, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out, ok := a.outputs[id]
	return out, ok
}

// Outputs returns a snapshot slice of all cached outputs.
func (a *Address) Outputs() []*AddressOutput {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*AddressOutput, 0, len(a.outputs))
	for _, o := range a.outputs {
		out = append(out, o)
	}
	return out
}

// OutputIDs returns the set of cached OutputIDs, used by the Reconciler to
// find outputs the node no longer reports (prune inference).
func (a *Address) OutputIDs() []common.OutputID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]common.OutputID, 0, len(a.outputs))
	for id := range a.outputs {
		ids = append(ids, id)
	}
	return ids
}

// IsUsed reports whether the address has any cached outputs (§3, §4.9:
// Used(has outputs)).
func (a *Address) IsUsed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.outputs) > 0
}

// Balance computes the current unspent breakdown, feeding both balance
// reporting and the Dust Admission predicate (§4.6).
func (a *Address) Balance() BalanceBreakdown {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var b BalanceBreakdown
	for _, o := range a.outputs {
		if o.IsSpent {
			continue
		}
		switch o.Kind {
		case common.OutputDustAllowance:
			b.DustAllowance += o.Amount
		case common.OutputSingle:
			b.Single += o.Amount
			if o.Amount < params.DustAllowanceValue {
				b.DustCount++
			}
		}
	}
	return b
}
