// Package scanner implements the Address Scanner (§4.2): a gap-limited,
// two-space sweep over externally and internally (change) derived
// addresses.
package scanner

import (
	"context"
	"errors"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/log"
	"github.com/iotaledger/wallet.go/params"
	"github.com/iotaledger/wallet.go/reconciler"
	"github.com/iotaledger/wallet.go/signer"
)

var logger = log.NewModuleLogger(log.Scanner)

// Scanner sweeps one address space at a time, deriving candidate
// addresses through Signer and reconciling each batch through Reconciler.
type Scanner struct {
	Signer     signer.Signer
	Reconciler *reconciler.Reconciler
}

// New returns a Scanner over the given Signer/Reconciler pair.
func New(sg signer.Signer, rec *reconciler.Reconciler) *Scanner {
	return &Scanner{Signer: sg, Reconciler: rec}
}

// Result is the outcome of one space's sweep.
type Result struct {
	// Addresses are the dense, kept addresses: the contiguous prefix of
	// used addresses from startIndex, plus exactly one trailing unused
	// address (§8 S3). Addresses speculatively derived beyond the gap
	// limit's final empty batch are discarded here, not returned.
	Addresses []*account.Address
	Messages  []*account.Message
	// Aborted is true when the signer became unavailable mid-sweep
	// (§4.2, §7): the sweep stopped cleanly and Addresses/Messages hold
	// whatever was discovered before the abort.
	Aborted bool
}

// Sweep implements §4.2. gapLimit <= 0 selects params.DefaultGapLimit.
func (s *Scanner) Sweep(ctx context.Context, bech32HRP string, internal bool, startIndex uint32, gapLimit int, opts reconciler.Options) (*Result, error) {
	if gapLimit <= 0 {
		gapLimit = params.DefaultGapLimit
	}

	result := &Result{}
	var allDerived []*account.Address
	lastUsed := int64(-1)
	current := startIndex

	for {
		batch := make([]*account.Address, 0, gapLimit)
		aborted := false
		for i := 0; i < gapLimit; i++ {
			idx := current + uint32(i)
			ref, err := s.Signer.Derive(ctx, idx, internal, bech32HRP, signer.DeriveOptions{Syncing: true})
			if err != nil {
				var unavailable *signer.ErrSignerUnavailable
				if errors.As(err, &unavailable) {
					logger.Warn("signer unavailable, aborting sweep", "space_internal", internal, "index", idx)
					aborted = true
					break
				}
				return nil, err
			}
			if err := ref.Validate(); err != nil {
				return nil, err
			}
			batch = append(batch, account.NewAddress(idx, internal, ref))
		}
		if len(batch) == 0 {
			result.Aborted = aborted
			break
		}

		addrResults := s.Reconciler.ReconcileMany(ctx, batch, opts)
		batchEmpty := true
		for i, res := range addrResults {
			if res.Err != nil {
				return nil, res.Err
			}
			addr := batch[i]
			if addr.IsUsed() || len(res.Messages) > 0 {
				batchEmpty = false
				lastUsed = int64(addr.KeyIndex)
			}
			result.Messages = append(result.Messages, res.Messages...)
		}

		allDerived = append(allDerived, batch...)
		current += uint32(len(batch))

		if batchEmpty || aborted {
			result.Aborted = aborted
			break
		}
	}

	trimmedUpper := startIndex
	if lastUsed >= 0 {
		trimmedUpper = uint32(lastUsed) + 1
	}
	for _, addr := range allDerived {
		if addr.KeyIndex <= trimmedUpper {
			result.Addresses = append(result.Addresses, addr)
		}
	}
	return result, nil
}
