// Package dust implements the Dust Admission predicate (§4.6): a
// forward-simulation over the post-confirmation state of every address a
// transaction touches, evaluated after essence construction but before
// signing (so signing is never wasted on an admission failure).
package dust

import (
	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
	"github.com/iotaledger/wallet.go/params"
	"github.com/iotaledger/wallet.go/selector"
	"github.com/iotaledger/wallet.go/walleterr"
)

// Projection is the post-confirmation view of a single touched address
// the predicate evaluates.
type Projection struct {
	Address         common.AddressRef
	Current         account.BalanceBreakdown
	DeltaAllowance  int64 // signed change to unspent DustAllowance balance
	DeltaDustCount  int   // signed change to unspent dust-Single count
	NodeDustAllowed bool  // node-reported dust_allowed flag for Address
}

// Delta computes a Projection's deltas for one address from the inputs
// selected and outputs created by a single transaction, §4.6's "±this
// transaction's effect".
func Delta(addr common.AddressRef, inputs []selector.SelectedInput, outputs []essence.Output) (deltaAllowance int64, deltaDustCount int) {
	for _, in := range inputs {
		if !in.Address.Equal(addr) {
			continue
		}
		switch in.Output.Kind {
		case common.OutputDustAllowance:
			deltaAllowance -= int64(in.Output.Amount)
		case common.OutputSingle:
			if in.Output.Amount < params.DustAllowanceValue {
				deltaDustCount--
			}
		}
	}
	for _, out := range outputs {
		if !out.Address.Equal(addr) {
			continue
		}
		switch out.Kind {
		case common.OutputDustAllowance:
			deltaAllowance += int64(out.Amount)
		case common.OutputSingle:
			if out.Amount < params.DustAllowanceValue {
				deltaDustCount++
			}
		}
	}
	return deltaAllowance, deltaDustCount
}

// Admit implements §4.6's predicate for a single address projection.
func Admit(p Projection) error {
	allowanceBalance := int64(p.Current.DustAllowance) + p.DeltaAllowance
	if allowanceBalance < 0 {
		allowanceBalance = 0
	}
	dustCount := p.Current.DustCount + p.DeltaDustCount
	if dustCount < 0 {
		dustCount = 0
	}

	// Fast path: node already allows dust here, we add exactly one dust
	// output, the allowance balance stays non-negative, and the address's
	// current total balance is comfortably under the divisor threshold.
	if p.DeltaDustCount == 1 && p.NodeDustAllowed && allowanceBalance >= 0 {
		if p.Current.Total()/params.DustDivisor < params.MaxAllowedDustOutputs {
			return nil
		}
	}

	if dustCount == 0 {
		return nil
	}

	allowed := uint64(allowanceBalance) / params.DustDivisor
	if allowed > params.MaxAllowedDustOutputs {
		allowed = params.MaxAllowedDustOutputs
	}

	if uint64(dustCount) <= allowed {
		return nil
	}
	return &walleterr.DustError{Address: p.Address.Bech32()}
}

// AdmitAll evaluates every touched projection, returning the first
// rejection encountered.
func AdmitAll(projections []Projection) error {
	for _, p := range projections {
		if err := Admit(p); err != nil {
			return err
		}
	}
	return nil
}
