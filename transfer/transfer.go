// Package transfer implements the Transfer Builder (§4.5): balance
// validation, input selection, essence assembly with remainder routing,
// dust admission, signing, verification, submission, and the post-submit
// confirmation probe.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/dust"
	"github.com/iotaledger/wallet.go/essence"
	"github.com/iotaledger/wallet.go/eventsink"
	"github.com/iotaledger/wallet.go/log"
	"github.com/iotaledger/wallet.go/node"
	"github.com/iotaledger/wallet.go/selector"
	"github.com/iotaledger/wallet.go/signer"
	"github.com/iotaledger/wallet.go/storage"
	"github.com/iotaledger/wallet.go/walleterr"
)

var logger = log.NewModuleLogger(log.Transfer)

// RemainderStrategy selects where surplus input value is routed (§3, §4.5
// step 3).
type RemainderStrategy int

const (
	RemainderReuseAddress RemainderStrategy = iota
	RemainderAccountAddress
	RemainderChangeAddress
)

// OutputSpec is one requested destination of a Transfer.
type OutputSpec struct {
	Address common.AddressRef
	Amount  uint64
	Kind    common.OutputKind
}

// Transfer is the public request §4.5 operates on (§3).
type Transfer struct {
	Outputs              []OutputSpec
	RemainderStrategy    RemainderStrategy
	RemainderAccountAddr common.AddressRef // used when RemainderStrategy == RemainderAccountAddress
	PinnedInputs         []common.OutputID
	Indexation           []byte
}

// Builder is the Transfer Builder. OnConfirmed, if set, is invoked from
// the detached post-submit confirmation poller (§4.5 step 9: "triggers a
// message-only re-sync"); it is the Syncer's hook point, kept here as a
// callback so this package never imports sync (would cycle).
type Builder struct {
	Node      node.Node
	Signer    signer.Signer
	Storage   storage.Storage
	Sink      eventsink.Sink
	Bech32HRP string

	OnConfirmed func(ctx context.Context, accountIndex uint32)
}

// New constructs a Transfer Builder.
func New(n node.Node, sg signer.Signer, st storage.Storage, sink eventsink.Sink, bech32HRP string) *Builder {
	return &Builder{Node: n, Signer: sg, Storage: st, Sink: sink, Bech32HRP: bech32HRP}
}

func (b *Builder) emit(accountIndex uint32, stage eventsink.TransferProgressStage) {
	if b.Sink == nil {
		return
	}
	b.Sink.Emit(eventsink.Event{TransferProgress: &eventsink.TransferProgress{AccountIndex: accountIndex, Stage: stage}})
}

// Transfer implements §4.5 end to end.
func (b *Builder) Transfer(ctx context.Context, handle *account.Handle, accountIndex uint32, t Transfer) (*account.Message, error) {
	var targetAmount uint64
	for _, o := range t.Outputs {
		if o.Kind == common.OutputTreasury {
			return nil, &walleterr.InvalidOutputKind{Kind: o.Kind.String()}
		}
		targetAmount += o.Amount
	}

	destinations := make([]common.AddressRef, 0, len(t.Outputs))
	for _, o := range t.Outputs {
		destinations = append(destinations, o.Address)
	}

	// --- Phase 1: prepare -------------------------------------------------
	var (
		balance            uint64
		candidates         []selector.Candidate
		strategy           = t.RemainderStrategy
		ownsAnyDestination bool
		latestExternal     *account.Address
		latestChange       *account.Address
	)
	handle.Read(func(a *account.Account) {
		for _, addr := range a.Addresses() {
			bal := addr.Balance()
			balance += bal.Total()
			candidates = append(candidates, selector.Candidate{
				Address: addr.Ref, KeyIndex: addr.KeyIndex, Internal: addr.Internal, Outputs: addr.Outputs(),
			})
			if !addr.Internal {
				if latestExternal == nil || addr.KeyIndex > latestExternal.KeyIndex {
					latestExternal = addr
				}
			} else {
				if latestChange == nil || addr.KeyIndex > latestChange.KeyIndex {
					latestChange = addr
				}
			}
		}
		for _, dest := range destinations {
			if a.Owns(dest) {
				ownsAnyDestination = true
			}
		}
	})

	if targetAmount > balance {
		return nil, &walleterr.InsufficientFunds{Have: balance, Want: targetAmount}
	}
	if strategy == RemainderAccountAddress {
		owns := false
		handle.Read(func(a *account.Account) { owns = a.Owns(t.RemainderAccountAddr) })
		if !owns {
			return nil, walleterr.ErrInvalidRemainderAddress
		}
	}
	if ownsAnyDestination {
		// §4.5 step 1: force ReuseAddress so reported value reflects only
		// externally visible amounts.
		strategy = RemainderReuseAddress
	}

	// --- Phase 2: select ----------------------------------------------------
	b.emit(accountIndex, eventsink.StageSelectingInputs)
	locked := handle.LockedOutputs()
	selected, remainderSpec, err := selector.Select(targetAmount, candidates, len(t.Outputs), b.Signer.Capability(), destinations, locked, t.PinnedInputs)
	if err != nil {
		return nil, err
	}

	releaseOnErr := func() {
		ids := make([]common.OutputID, len(selected))
		for i, s := range selected {
			ids[i] = s.Output.ID()
		}
		locked.Release(ids)
	}

	// --- Phase 3: assemble essence ------------------------------------------
	var ess essence.Essence
	for _, s := range selected {
		ess.Inputs = append(ess.Inputs, essence.Input{OutputID: s.Output.ID()})
	}
	for _, o := range t.Outputs {
		ess.Outputs = append(ess.Outputs, essence.Output{Address: o.Address, Amount: o.Amount, Kind: o.Kind})
	}
	ess.Indexation = t.Indexation

	var remainderAddr common.AddressRef
	var newChangeAddress *account.Address

	if remainderSpec != nil {
		switch strategy {
		case RemainderReuseAddress:
			remainderAddr = remainderSpec.SourceAddress
		case RemainderAccountAddress:
			remainderAddr = t.RemainderAccountAddr
		case RemainderChangeAddress:
			b.emit(accountIndex, eventsink.StageGeneratingRemainderDepositAddress)
			addr, fresh, err := b.changeAddress(ctx, handle, latestChange)
			if err != nil {
				releaseOnErr()
				return nil, err
			}
			remainderAddr = addr.Ref
			if fresh {
				newChangeAddress = addr
			}
		}
		ess.Outputs = append(ess.Outputs, essence.Output{Address: remainderAddr, Amount: remainderSpec.Amount, Kind: common.OutputSingle})
	}

	if newChangeAddress != nil {
		handle.Write(func(a *account.Account) {
			a.AddAddress(newChangeAddress)
			a.AddChangeAddressToSync(newChangeAddress.Ref)
		})
		if b.Storage != nil {
			if err := b.Storage.SaveAddresses(accountIndex, []*account.Address{newChangeAddress}); err != nil {
				logger.Warn("failed to persist new change address", "err", err)
			}
		}
	}

	b.emit(accountIndex, eventsink.StagePreparedTransaction)

	// --- Phase 4: dust admission --------------------------------------------
	if err := b.admitDust(ctx, handle, selected, ess.Outputs); err != nil {
		releaseOnErr()
		return nil, err
	}

	// --- Phase 5: canonicalize ----------------------------------------------
	ess.Canonicalize()

	// --- Phase 6: sign -------------------------------------------------------
	b.emit(accountIndex, eventsink.StageSigningTransaction)
	inputMetas := make([]signer.InputMeta, len(selected))
	// selected was captured before canonicalization reordered inputs; since
	// InputMeta must align positionally with ess.Inputs post-sort, rebuild
	// the mapping by OutputID.
	bySource := make(map[common.OutputID]selector.SelectedInput, len(selected))
	for _, s := range selected {
		bySource[s.Output.ID()] = s
	}
	for i, in := range ess.Inputs {
		s := bySource[in.OutputID]
		inputMetas[i] = signer.InputMeta{AddressIndex: s.KeyIndex, Internal: s.Internal}
	}

	blocks, err := b.Signer.Sign(ctx, &ess, inputMetas, signer.SignMetadata{Network: b.Bech32HRP})
	if err != nil {
		releaseOnErr()
		return nil, err
	}
	if len(blocks) != len(ess.Inputs) {
		releaseOnErr()
		return nil, walleterr.ErrMissingUnlockBlock
	}

	// --- Phase 7: verify -------------------------------------------------------
	hash := ess.Hash()
	if bad := essence.VerifyAll(hash, blocks); bad >= 0 {
		releaseOnErr()
		return nil, fmt.Errorf("transfer: signature verification failed for input %d", bad)
	}

	// --- Phase 8: PoW & submit -------------------------------------------------
	b.emit(accountIndex, eventsink.StagePerformingPoW)
	b.emit(accountIndex, eventsink.StageBroadcasting)

	txID := common.TransactionID(hash)
	msgEssence := essence.Essence{Inputs: ess.Inputs, Outputs: ess.Outputs}
	msgID := common.MessageID(msgEssence.Hash())

	wireMsg := &node.MessageResponse{
		ID: msgID,
		Transaction: &node.TransactionPayload{
			ID:      txID,
			Inputs:  wireInputs(ess.Inputs),
			Outputs: wireOutputs(ess.Outputs),
		},
	}

	postedID, postErr := b.Node.PostMessage(ctx, wireMsg)
	if postErr != nil {
		// §4.5 step 8 / §7: broadcast errors are absorbed, proceed with the
		// locally computed message id; the next sync reconciles.
		logger.Warn("post_message failed, proceeding with local message id", "err", postErr)
		postedID = msgID
	}

	resultMsg := &account.Message{
		ID:        postedID,
		Confirmed: account.ConfirmationUnknown,
		Payload: &account.Transaction{
			ID:      txID,
			Inputs:  accountInputs(ess.Inputs),
			Outputs: accountOutputs(ess.Outputs),
		},
	}

	// --- Phase 9: post-submit -------------------------------------------------
	handle.Write(func(a *account.Account) {
		a.SaveMessage(resultMsg)
	})
	if b.Storage != nil {
		if err := b.Storage.SaveMessages(accountIndex, []*account.Message{resultMsg}); err != nil {
			logger.Warn("failed to persist transfer message", "err", err)
		}
	}

	b.releaseAndMaybeExtend(ctx, handle, accountIndex, selected, remainderAddr, latestExternal, destinations)

	pollID := uuid.New()
	go b.pollInclusion(context.Background(), accountIndex, postedID, pollID)

	return resultMsg, nil
}

func (b *Builder) admitDust(ctx context.Context, handle *account.Handle, selected []selector.SelectedInput, outputs []essence.Output) error {
	touched := make(map[common.AddressRef]struct{})
	for _, s := range selected {
		touched[s.Address] = struct{}{}
	}
	for _, o := range outputs {
		touched[o.Address] = struct{}{}
	}

	var projections []dust.Projection
	for addr := range touched {
		var current account.BalanceBreakdown
		handle.Read(func(a *account.Account) {
			if existing, ok := a.AddressByRef(addr); ok {
				current = existing.Balance()
			}
		})
		var nodeDustAllowed bool
		if bal, err := b.Node.Balance(ctx, addr); err == nil {
			nodeDustAllowed = bal.DustAllowed
		}
		deltaAllowance, deltaCount := dust.Delta(addr, selected, outputs)
		projections = append(projections, dust.Projection{
			Address: addr, Current: current, DeltaAllowance: deltaAllowance, DeltaDustCount: deltaCount, NodeDustAllowed: nodeDustAllowed,
		})
	}
	return dust.AdmitAll(projections)
}

// changeAddress implements §4.5 step 3's ChangeAddress routing: reuse the
// latest change address if unused, else derive a new one. For hardware
// signers, re-derive in non-syncing mode to force device display; a
// mismatch between the two derivations is fatal (§7, §9).
func (b *Builder) changeAddress(ctx context.Context, handle *account.Handle, latestChange *account.Address) (*account.Address, bool, error) {
	if latestChange != nil && !latestChange.IsUsed() {
		return latestChange, false, nil
	}
	nextIndex := uint32(0)
	if latestChange != nil {
		nextIndex = latestChange.KeyIndex + 1
	}

	ref, err := b.Signer.Derive(ctx, nextIndex, true, b.Bech32HRP, signer.DeriveOptions{Syncing: true})
	if err != nil {
		return nil, false, err
	}
	if b.Signer.Capability().IsHardware {
		// Re-derive with Syncing=false to force the device to display the
		// address; a mismatch between the two derivations is fatal (§9).
		displayed, err := b.Signer.Derive(ctx, nextIndex, true, b.Bech32HRP, signer.DeriveOptions{Syncing: false})
		if err != nil {
			return nil, false, err
		}
		if !displayed.Equal(ref) {
			return nil, false, walleterr.ErrLedgerMnemonicMismatch
		}
	}
	return account.NewAddress(nextIndex, true, ref), true, nil
}

// releaseAndMaybeExtend implements §4.5 step 9's release + trailing-
// address-invariant maintenance.
func (b *Builder) releaseAndMaybeExtend(ctx context.Context, handle *account.Handle, accountIndex uint32, selected []selector.SelectedInput, remainderAddr common.AddressRef, latestExternal *account.Address, destinations []common.AddressRef) {
	locked := handle.LockedOutputs()
	ids := make([]common.OutputID, len(selected))
	for i, s := range selected {
		ids[i] = s.Output.ID()
	}
	locked.Release(ids)

	if latestExternal == nil {
		return
	}
	touchesLatest := remainderAddr.Equal(latestExternal.Ref)
	if !touchesLatest {
		for _, d := range destinations {
			if d.Equal(latestExternal.Ref) {
				touchesLatest = true
				break
			}
		}
	}
	if !touchesLatest {
		return
	}
	ref, err := b.Signer.Derive(ctx, latestExternal.KeyIndex+1, false, b.Bech32HRP, signer.DeriveOptions{Syncing: true})
	if err != nil {
		logger.Warn("failed to extend external address after transfer", "err", err)
		return
	}
	fresh := account.NewAddress(latestExternal.KeyIndex+1, false, ref)
	handle.Write(func(a *account.Account) { a.AddAddress(fresh) })
	if b.Storage != nil {
		if err := b.Storage.SaveAddresses(accountIndex, []*account.Address{fresh}); err != nil {
			logger.Warn("failed to persist extended external address", "err", err)
		}
	}
}

// pollInclusion is the detached confirmation probe (§4.5 step 9, §5
// "only confirmation polling is detached"). pollID exists purely for log
// correlation across concurrent polls.
func (b *Builder) pollInclusion(ctx context.Context, accountIndex uint32, msgID common.MessageID, pollID uuidType) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Warn("giving up on inclusion poll", "message", msgID, "poll", pollID)
			return
		case <-ticker.C:
			msgs, err := b.Node.RetryUntilIncluded(ctx, msgID)
			if err != nil {
				continue
			}
			for _, m := range msgs {
				if m.Confirmed == node.ConfirmationConfirmed {
					if b.OnConfirmed != nil {
						b.OnConfirmed(ctx, accountIndex)
					}
					return
				}
			}
		}
	}
}

type uuidType = uuid.UUID

func wireInputs(in []essence.Input) []node.TxInput {
	out := make([]node.TxInput, len(in))
	for i, v := range in {
		out[i] = node.TxInput{OutputID: v.OutputID}
	}
	return out
}

func wireOutputs(out []essence.Output) []node.TxOutput {
	res := make([]node.TxOutput, len(out))
	for i, v := range out {
		res[i] = node.TxOutput{Address: v.Address, Amount: v.Amount, Kind: v.Kind}
	}
	return res
}

func accountInputs(in []essence.Input) []account.TxInput {
	out := make([]account.TxInput, len(in))
	for i, v := range in {
		out[i] = account.TxInput{OutputID: v.OutputID}
	}
	return out
}

func accountOutputs(out []essence.Output) []account.TxOutput {
	res := make([]account.TxOutput, len(out))
	for i, v := range out {
		res[i] = account.TxOutput{Address: v.Address, Amount: v.Amount, Kind: v.Kind}
	}
	return res
}
