// Package selector implements the Input Selector (§4.4): bounded-
// cardinality, greedy-by-value input selection honoring the LockedOutputs
// reservation set and destination-address exclusion rules.
package selector

import (
	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/log"
	"github.com/iotaledger/wallet.go/params"
	"github.com/iotaledger/wallet.go/signer"
	"github.com/iotaledger/wallet.go/walleterr"
)

var logger = log.NewModuleLogger(log.Selector)

// Candidate groups one address's eligible outputs, in the order they
// should be considered. §9 design note: "the source's input selector ...
// uses last() as remainder source — preserve the insertion order of
// candidates to match observed behavior" — callers must pass candidates
// in the order they want considered, not re-sort them here.
type Candidate struct {
	Address  common.AddressRef
	KeyIndex uint32
	Internal bool
	Outputs  []*account.AddressOutput
}

// SelectedInput is one chosen input plus the address metadata the
// Transfer Builder needs to hand to the Signer.
type SelectedInput struct {
	Output   *account.AddressOutput
	Address  common.AddressRef
	KeyIndex uint32
	Internal bool
}

// RemainderSpec describes the surplus value selection produced beyond the
// transfer's target amount, and the address it should be attributed to
// as a source (§4.4: "the last selected input whose address is not among
// the transfer's destinations").
type RemainderSpec struct {
	SourceAddress  common.AddressRef
	SourceKeyIndex uint32
	SourceInternal bool
	Amount         uint64
}

// findCandidateOutput locates the output id names, along with the
// candidate (address) it belongs to.
func findCandidateOutput(candidates []Candidate, id common.OutputID) (*account.AddressOutput, Candidate, bool) {
	for _, cand := range candidates {
		for _, out := range cand.Outputs {
			if out.ID() == id {
				return out, cand, true
			}
		}
	}
	return nil, Candidate{}, false
}

func isDestination(addr common.AddressRef, destinations []common.AddressRef) bool {
	for _, d := range destinations {
		if d.Equal(addr) {
			return true
		}
	}
	return false
}

// Select implements §4.4. transferOutputCount is the number of destination
// outputs the caller's Transfer will create (excluding remainder); it
// drives the hardware TooManyOutputs precondition and the hardware input
// budget (§4.4, §8 S2). pinned names outputs the caller has already
// decided belong in the transaction (§3 Transfer: "optional pinned
// inputs"); they are force-included ahead of the greedy accumulation,
// bypassing its amount-driven ordering and destination-exclusion
// heuristic, which only exist to pick a good candidate automatically.
func Select(
	targetAmount uint64,
	candidates []Candidate,
	transferOutputCount int,
	capability signer.Capability,
	destinations []common.AddressRef,
	locked *account.LockedOutputs,
	pinned []common.OutputID,
) ([]SelectedInput, *RemainderSpec, error) {
	maxInputs, err := inputBudget(transferOutputCount, capability)
	if err != nil {
		return nil, nil, err
	}

	var (
		selected []SelectedInput
		total    uint64
	)

	pinnedSelected := make(map[common.OutputID]struct{}, len(pinned))
	for _, id := range pinned {
		out, cand, ok := findCandidateOutput(candidates, id)
		if !ok || out.IsSpent || out.Kind == common.OutputTreasury || locked.Contains(id) {
			return nil, nil, walleterr.ErrPinnedInputUnavailable
		}
		if len(selected) >= maxInputs {
			return nil, nil, &walleterr.TooManyOutputs{Count: len(pinned), Max: maxInputs}
		}
		selected = append(selected, SelectedInput{
			Output: out, Address: cand.Address, KeyIndex: cand.KeyIndex, Internal: cand.Internal,
		})
		total += out.Amount
		pinnedSelected[id] = struct{}{}
	}

outer:
	for _, cand := range candidates {
		for _, out := range cand.Outputs {
			if len(selected) >= maxInputs || total >= targetAmount {
				break outer
			}
			if _, already := pinnedSelected[out.ID()]; already {
				continue
			}
			if out.Amount == 0 {
				continue
			}
			if out.IsSpent {
				continue
			}
			if out.Kind == common.OutputTreasury {
				continue
			}
			if locked.Contains(out.ID()) {
				continue
			}
			if isDestination(cand.Address, destinations) && out.Amount > targetAmount {
				// Excluded: selecting this would let the remainder land
				// back on a destination address (§4.4).
				continue
			}
			selected = append(selected, SelectedInput{
				Output: out, Address: cand.Address, KeyIndex: cand.KeyIndex, Internal: cand.Internal,
			})
			total += out.Amount
		}
	}

	if total < targetAmount {
		return nil, nil, &walleterr.InsufficientFunds{Have: total, Want: targetAmount}
	}

	var remainder *RemainderSpec
	if total > targetAmount {
		rem, err := remainderSource(selected, destinations)
		if err != nil {
			return nil, nil, err
		}
		rem.Amount = total - targetAmount
		remainder = rem
	}

	ids := make([]common.OutputID, len(selected))
	for i, s := range selected {
		ids[i] = s.Output.ID()
	}
	locked.Lock(ids)
	logger.Debug("selected inputs", "count", len(selected), "total", total, "target", targetAmount)

	return selected, remainder, nil
}

func inputBudget(transferOutputCount int, capability signer.Capability) (int, error) {
	if !capability.IsHardware {
		return params.InputOutputCountMax, nil
	}
	envelope := capability.MaxInputsPlusOutputs - 1 // reserve room for at least one input
	if transferOutputCount > envelope {
		return 0, &walleterr.TooManyOutputs{Count: transferOutputCount, Max: envelope}
	}
	return capability.MaxInputsPlusOutputs - transferOutputCount, nil
}

// remainderSource walks the selected inputs in reverse (last() per the §9
// open question) and returns the first whose address isn't a destination.
func remainderSource(selected []SelectedInput, destinations []common.AddressRef) (*RemainderSpec, error) {
	for i := len(selected) - 1; i >= 0; i-- {
		s := selected[i]
		if !isDestination(s.Address, destinations) {
			return &RemainderSpec{SourceAddress: s.Address, SourceKeyIndex: s.KeyIndex, SourceInternal: s.Internal}, nil
		}
	}
	return nil, walleterr.ErrFailedToGetRemainder
}
