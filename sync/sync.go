// Package sync implements the Syncer (§4.1): account-wide orchestration
// of the Address Scanner and Output Reconciler, address-space repair, and
// the Event Diff (§4.7) the result is reported through.
package sync

import (
	"context"
	"sort"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/eventsink"
	"github.com/iotaledger/wallet.go/log"
	"github.com/iotaledger/wallet.go/reconciler"
	"github.com/iotaledger/wallet.go/scanner"
	"github.com/iotaledger/wallet.go/signer"
	"github.com/iotaledger/wallet.go/storage"
)

var logger = log.NewModuleLogger(log.Sync)

// Monitor is the optional MQTT-style live-update subscription the Syncer
// suspends for the duration of a sync and resumes on both success and
// failure (§4.1), kept as a narrow interface since the real subscription
// is an external collaborator (§1).
type Monitor interface {
	Pause()
	Resume()
}

// Options parametrizes one Sync call (§4.1). The steps form an ordered
// set drawn from {SyncAddresses(fixed or gap-limited), SyncMessages}.
type Options struct {
	GapLimit     int
	AddressIndex uint32

	ScanAddresses  bool // SyncAddresses step present
	FixedAddresses []common.AddressRef // non-nil: SyncAddresses(Some(list)) — scan exactly these, no gap extension

	SyncMessages bool

	SkipChange bool
	ReturnAll  bool

	Reconciler reconciler.Options
}

// SyncedAccountData is the public result of a Sync call (§3, SPEC_FULL.md
// supplement 1).
type SyncedAccountData struct {
	AccountIndex uint32
	Addresses    []*account.Address
	Messages     []*account.Message
	Balance      uint64
}

// IsEmpty reports whether the synced account carries no balance and no
// transaction history, the "is this account fresh" signal the original
// exposes to its account-creation flow (SPEC_FULL.md supplement 1).
func (d SyncedAccountData) IsEmpty() bool {
	return d.Balance == 0 && len(d.Messages) == 0
}

// DepositAddress returns the highest-index external address, the one a
// caller should hand out to receive funds (SPEC_FULL.md supplement 1).
func (d SyncedAccountData) DepositAddress() (common.AddressRef, bool) {
	var best *account.Address
	for _, a := range d.Addresses {
		if a.Internal {
			continue
		}
		if best == nil || a.KeyIndex > best.KeyIndex {
			best = a
		}
	}
	if best == nil {
		return common.AddressRef{}, false
	}
	return best.Ref, true
}

// Syncer orchestrates one account's sync (§4.1).
type Syncer struct {
	Scanner    *scanner.Scanner
	Reconciler *reconciler.Reconciler
	Signer     signer.Signer
	Storage    storage.Storage
	Sink       eventsink.Sink
	Bech32HRP  string
	Monitor    Monitor
}

// New returns a Syncer wired to the given collaborators.
func New(sc *scanner.Scanner, rec *reconciler.Reconciler, sg signer.Signer, st storage.Storage, sink eventsink.Sink, bech32HRP string) *Syncer {
	return &Syncer{Scanner: sc, Reconciler: rec, Signer: sg, Storage: st, Sink: sink, Bech32HRP: bech32HRP}
}

type addressState struct {
	balance account.BalanceBreakdown
	outputs map[common.OutputID]*account.AddressOutput
}

// Sync implements §4.1 end to end.
func (s *Syncer) Sync(ctx context.Context, handle *account.Handle, accountIndex uint32, opts Options) (*SyncedAccountData, error) {
	if s.Monitor != nil {
		s.Monitor.Pause()
		defer s.Monitor.Resume()
	}

	before, messagesBefore := s.snapshot(handle)

	var (
		scanned        []*account.Address
		scannedMsgs    []*account.Message
		skipAddresses  = make(map[common.AddressRef]struct{})
	)

	if opts.ScanAddresses {
		if opts.FixedAddresses != nil {
			addrs, msgs, err := s.reconcileFixed(ctx, handle, opts.FixedAddresses, opts.Reconciler)
			if err != nil {
				return nil, err
			}
			scanned, scannedMsgs = addrs, msgs
		} else {
			addrs, msgs, err := s.scanBothSpaces(ctx, handle, opts)
			if err != nil {
				return nil, err
			}
			scanned, scannedMsgs = addrs, msgs
		}
		for _, a := range scanned {
			skipAddresses[a.Ref] = struct{}{}
		}
	}

	var reconciledMsgs []*account.Message
	if opts.SyncMessages {
		msgs, err := s.reconcileExisting(ctx, handle, opts, skipAddresses)
		if err != nil {
			return nil, err
		}
		reconciledMsgs = msgs
	}

	allMessages := append(append([]*account.Message{}, scannedMsgs...), reconciledMsgs...)
	newMessages := dedupNewMessages(allMessages, messagesBefore)

	// Merge the scan's discoveries in before repair/trailing-address checks
	// run, so those steps see the space as it stands after scanning rather
	// than a snapshot from before this sync.
	handle.Write(func(a *account.Account) {
		for _, addr := range scanned {
			a.AddAddress(addr)
		}
	})

	repaired := s.repairAddressSpace(ctx, handle)
	extended := s.ensureTrailingUnused(ctx, handle)

	merged := dedupAddresses(append(append(append([]*account.Address{}, scanned...), repaired...), extended...))

	handle.Write(func(a *account.Account) {
		for _, addr := range merged {
			a.AddAddress(addr)
		}
		for _, m := range newMessages {
			a.SaveMessage(m)
		}
	})

	if s.Storage != nil {
		if len(merged) > 0 {
			if err := s.Storage.SaveAddresses(accountIndex, merged); err != nil {
				logger.Warn("failed to persist synced addresses", "err", err)
			}
		}
		if len(newMessages) > 0 {
			if err := s.Storage.SaveMessages(accountIndex, newMessages); err != nil {
				logger.Warn("failed to persist synced messages", "err", err)
			}
		}
	}

	after, messagesAfter := s.snapshot(handle)
	handle.Write(func(*account.Account) {
		s.emitDiff(accountIndex, before, after, messagesBefore, messagesAfter, opts.Reconciler.SyncSpentOutputs)
	})

	var balance uint64
	var result SyncedAccountData
	handle.Read(func(a *account.Account) {
		result.AccountIndex = accountIndex
		for _, addr := range a.Addresses() {
			balance += addr.Balance().Total()
			if opts.ReturnAll || addr.IsUsed() {
				result.Addresses = append(result.Addresses, addr)
			}
		}
		result.Messages = a.Messages()
	})
	result.Balance = balance
	return &result, nil
}

func (s *Syncer) snapshot(handle *account.Handle) (map[common.AddressRef]addressState, map[common.MessageID]account.Confirmation) {
	states := make(map[common.AddressRef]addressState)
	msgs := make(map[common.MessageID]account.Confirmation)
	handle.Read(func(a *account.Account) {
		for _, addr := range a.Addresses() {
			outs := make(map[common.OutputID]*account.AddressOutput)
			for _, o := range addr.Outputs() {
				outs[o.ID()] = o
			}
			states[addr.Ref] = addressState{balance: addr.Balance(), outputs: outs}
		}
		for _, m := range a.Messages() {
			msgs[m.ID] = m.Confirmed
		}
	})
	return states, msgs
}

func (s *Syncer) reconcileFixed(ctx context.Context, handle *account.Handle, refs []common.AddressRef, opts reconciler.Options) ([]*account.Address, []*account.Message, error) {
	var addrs []*account.Address
	handle.Read(func(a *account.Account) {
		for _, ref := range refs {
			if addr, ok := a.AddressByRef(ref); ok {
				addrs = append(addrs, addr)
			}
		}
	})
	results := s.Reconciler.ReconcileMany(ctx, addrs, opts)
	var msgs []*account.Message
	for _, r := range results {
		if r.Err != nil {
			return nil, nil, r.Err
		}
		msgs = append(msgs, r.Messages...)
	}
	return addrs, msgs, nil
}

func (s *Syncer) scanBothSpaces(ctx context.Context, handle *account.Handle, opts Options) ([]*account.Address, []*account.Message, error) {
	var addrs []*account.Address
	var msgs []*account.Message

	for _, internal := range []bool{false, true} {
		var start uint32
		handle.Read(func(a *account.Account) {
			if max, ok := a.HighestIndex(internal); ok {
				start = max + 1
			}
		})
		res, err := s.Scanner.Sweep(ctx, s.Bech32HRP, internal, start, opts.GapLimit, opts.Reconciler)
		if err != nil {
			return nil, nil, err
		}
		addrs = append(addrs, res.Addresses...)
		msgs = append(msgs, res.Messages...)
	}
	return addrs, msgs, nil
}

// reconcileExisting reconciles already-known addresses with
// key_index >= opts.AddressIndex, honoring skip_addresses and skip_change
// (§4.1).
func (s *Syncer) reconcileExisting(ctx context.Context, handle *account.Handle, opts Options, skip map[common.AddressRef]struct{}) ([]*account.Message, error) {
	var changeSet map[common.AddressRef]struct{}
	var candidates []*account.Address
	handle.Read(func(a *account.Account) {
		changeSet = make(map[common.AddressRef]struct{})
		for _, ref := range a.ChangeAddressesToSync() {
			changeSet[ref] = struct{}{}
		}
		for _, addr := range a.Addresses() {
			if addr.KeyIndex < opts.AddressIndex {
				continue
			}
			if _, skipped := skip[addr.Ref]; skipped {
				continue
			}
			if opts.SkipChange && addr.Internal {
				if _, forced := changeSet[addr.Ref]; !forced {
					continue
				}
			}
			candidates = append(candidates, addr)
		}
	})

	results := s.Reconciler.ReconcileMany(ctx, candidates, opts.Reconciler)
	var msgs []*account.Message
	for _, r := range results {
		if r.Err != nil {
			if opts.Reconciler.SyncSpentOutputs {
				return nil, r.Err
			}
			logger.Warn("eliding address reconciliation failure", "address", r.Address.Ref, "err", r.Err)
			continue
		}
		msgs = append(msgs, r.Messages...)
	}
	return msgs, nil
}

// repairAddressSpace implements §4.1 step 2: fill any interior gap in a
// space's key_index sequence. Signer-unavailable errors are non-fatal.
func (s *Syncer) repairAddressSpace(ctx context.Context, handle *account.Handle) []*account.Address {
	var missing []*account.Address
	for _, internal := range []bool{false, true} {
		var present map[uint32]bool
		var max uint32
		var found bool
		handle.Read(func(a *account.Account) {
			present = make(map[uint32]bool)
			for _, addr := range a.AddressesInSpace(internal) {
				present[addr.KeyIndex] = true
			}
			max, found = a.HighestIndex(internal)
		})
		if !found {
			continue
		}
		for idx := uint32(0); idx <= max; idx++ {
			if present[idx] {
				continue
			}
			ref, err := s.Signer.Derive(ctx, idx, internal, s.Bech32HRP, signer.DeriveOptions{Syncing: true})
			if err != nil {
				logger.Warn("address-space repair: signer unavailable, skipping", "internal", internal, "index", idx, "err", err)
				continue
			}
			missing = append(missing, account.NewAddress(idx, internal, ref))
		}
	}
	return missing
}

// ensureTrailingUnused implements §4.1 step 3: a used highest-index
// address in a space must be followed by exactly one unused address.
func (s *Syncer) ensureTrailingUnused(ctx context.Context, handle *account.Handle) []*account.Address {
	var extended []*account.Address
	for _, internal := range []bool{false, true} {
		var highest *account.Address
		handle.Read(func(a *account.Account) {
			for _, addr := range a.AddressesInSpace(internal) {
				if highest == nil || addr.KeyIndex > highest.KeyIndex {
					highest = addr
				}
			}
		})
		if highest == nil || !highest.IsUsed() {
			continue
		}
		ref, err := s.Signer.Derive(ctx, highest.KeyIndex+1, internal, s.Bech32HRP, signer.DeriveOptions{Syncing: true})
		if err != nil {
			logger.Warn("trailing-address guarantee: signer unavailable, skipping", "internal", internal, "err", err)
			continue
		}
		extended = append(extended, account.NewAddress(highest.KeyIndex+1, internal, ref))
	}
	return extended
}

func dedupAddresses(addrs []*account.Address) []*account.Address {
	seen := make(map[bool]map[uint32]*account.Address)
	for _, a := range addrs {
		if seen[a.Internal] == nil {
			seen[a.Internal] = make(map[uint32]*account.Address)
		}
		seen[a.Internal][a.KeyIndex] = a
	}
	var out []*account.Address
	for _, byIndex := range seen {
		for _, a := range byIndex {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Internal != out[j].Internal {
			return !out[i].Internal
		}
		return out[i].KeyIndex < out[j].KeyIndex
	})
	return out
}

func dedupNewMessages(reconciled []*account.Message, before map[common.MessageID]account.Confirmation) []*account.Message {
	seen := make(map[common.MessageID]*account.Message)
	for _, m := range reconciled {
		if m == nil {
			continue
		}
		seen[m.ID] = m
	}
	var out []*account.Message
	for id, m := range seen {
		if _, known := before[id]; known {
			continue
		}
		out = append(out, m)
	}
	return out
}

// emitDiff implements §4.7: balance-change, new-transaction and
// confirmation-state-change events, emitted after persistence.
func (s *Syncer) emitDiff(accountIndex uint32, before, after map[common.AddressRef]addressState, msgsBefore, msgsAfter map[common.MessageID]account.Confirmation, syncSpentOutputs bool) {
	if s.Sink == nil {
		return
	}

	for ref, post := range after {
		pre, existed := before[ref]
		if !existed {
			pre = addressState{outputs: map[common.OutputID]*account.AddressOutput{}}
		}
		delta := int64(post.balance.Total()) - int64(pre.balance.Total())
		if delta == 0 {
			continue
		}

		var explained int64
		if syncSpentOutputs {
			for id, out := range post.outputs {
				if out.IsSpent {
					continue
				}
				if _, existedBefore := pre.outputs[id]; !existedBefore {
					s.Sink.Emit(eventsink.Event{BalanceChange: &eventsink.BalanceChange{
						AccountIndex: accountIndex, Address: ref, Kind: eventsink.BalanceReceived,
						Amount: out.Amount, MessageID: out.MessageID, HasMessageID: true,
					}})
					explained += int64(out.Amount)
				}
			}
			for id, out := range pre.outputs {
				if out.IsSpent {
					continue
				}
				if now, stillPresent := post.outputs[id]; !stillPresent || now.IsSpent {
					s.Sink.Emit(eventsink.Event{BalanceChange: &eventsink.BalanceChange{
						AccountIndex: accountIndex, Address: ref, Kind: eventsink.BalanceSpent,
						Amount: out.Amount, MessageID: out.MessageID, HasMessageID: true,
					}})
					explained -= int64(out.Amount)
				}
			}
		}

		remainder := delta - explained
		if remainder != 0 {
			kind := eventsink.BalanceReceived
			amount := remainder
			if remainder < 0 {
				kind = eventsink.BalanceSpent
				amount = -remainder
			}
			s.Sink.Emit(eventsink.Event{BalanceChange: &eventsink.BalanceChange{
				AccountIndex: accountIndex, Address: ref, Kind: kind, Amount: uint64(amount), HasMessageID: false,
			}})
		}
	}

	for id, confirmed := range msgsAfter {
		if _, existed := msgsBefore[id]; !existed {
			s.Sink.Emit(eventsink.Event{NewTransaction: &eventsink.NewTransaction{AccountIndex: accountIndex, MessageID: id}})
			continue
		}
		if msgsBefore[id] != confirmed {
			s.Sink.Emit(eventsink.Event{ConfirmationStateChange: &eventsink.ConfirmationStateChange{
				AccountIndex: accountIndex, MessageID: id, Confirmed: translateConfirmation(confirmed),
			}})
		}
	}
}

func translateConfirmation(c account.Confirmation) eventsink.ConfirmationState {
	switch c {
	case account.ConfirmationConfirmed:
		return eventsink.ConfirmationConfirmed
	case account.ConfirmationConflicting:
		return eventsink.ConfirmationConflicting
	default:
		return eventsink.ConfirmationUnknown
	}
}
