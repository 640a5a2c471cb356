// Package reconciler implements the Output Reconciler (§4.3): diffing
// locally cached outputs against node-reported outputs, including
// pruning-aware spent inference.
package reconciler

import (
	"context"
	"sync"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/log"
	"github.com/iotaledger/wallet.go/node"
	"github.com/iotaledger/wallet.go/params"
)

var logger = log.NewModuleLogger(log.Reconciler)

// Options parametrizes a reconciliation pass (§4.3 step 1).
type Options struct {
	SyncSpentOutputs bool
}

// Reconciler diffs one address's cached outputs against the Node's
// current view and resolves new/updated outputs' messages.
type Reconciler struct {
	Node node.Node
	// ChunkSize bounds in-flight per-address RPCs (§4.3 concurrency,
	// §6: SYNC_CHUNK_SIZE=500).
	ChunkSize int
	// messageCache avoids re-fetching a confirmed message this Reconciler
	// has already resolved: a single transaction's outputs commonly land
	// across several addresses in the same account, and each lands in the
	// node-ids list independently. Unconfirmed messages are not cached.
	messageCache common.Cache
}

// New returns a Reconciler with the default chunk size.
func New(n node.Node) *Reconciler {
	cache, err := common.NewLRUCache(params.SyncChunkSize)
	if err != nil {
		logger.Warn("message cache disabled", "err", err)
	}
	return &Reconciler{Node: n, ChunkSize: params.SyncChunkSize, messageCache: cache}
}

func (r *Reconciler) chunkSize() int {
	if r.ChunkSize <= 0 {
		return params.SyncChunkSize
	}
	return r.ChunkSize
}

// ReconcileAddress runs §4.3 steps 1-4 for a single address, mutating its
// cached outputs in place and returning newly discovered messages.
func (r *Reconciler) ReconcileAddress(ctx context.Context, addr *account.Address, opts Options) ([]*account.Message, error) {
	nodeIDs, err := r.Node.Outputs(ctx, addr.Ref, node.OutputsOptions{IncludeSpent: opts.SyncSpentOutputs})
	if err != nil {
		if opts.SyncSpentOutputs {
			return nil, err
		}
		logger.Warn("eliding output listing failure", "address", addr.Ref, "err", err)
		return nil, nil
	}

	// Step 2: prune inference. A cached OutputID absent from the node's
	// current listing is presumed pruned-because-spent, not ambiguous.
	nodeSet := make(map[common.OutputID]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		nodeSet[id] = struct{}{}
	}
	for _, cached := range addr.OutputIDs() {
		if _, present := nodeSet[cached]; !present {
			addr.MarkSpent(cached)
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		messages []*account.Message
		firstErr error
	)

	for _, id := range nodeIDs {
		id := id
		cached, isCached := addr.Output(id)

		// Step 3 skip rules.
		if isCached && cached.IsSpent {
			continue
		}
		if isCached && !cached.IsSpent && !opts.SyncSpentOutputs {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := r.fetchAndUpsert(ctx, addr, id, opts)
			if err != nil {
				if opts.SyncSpentOutputs {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				} else {
					logger.Warn("eliding output fetch failure", "output", id, "err", err)
				}
				return
			}
			if msg != nil {
				mu.Lock()
				messages = append(messages, msg)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return messages, nil
}

// fetchAndUpsert implements §4.3 steps 3-4 for a single output: fetch the
// output, upsert it, and resolve its message unless already
// known-confirmed locally.
func (r *Reconciler) fetchAndUpsert(ctx context.Context, addr *account.Address, id common.OutputID, opts Options) (*account.Message, error) {
	resp, err := r.Node.GetOutput(ctx, id)
	if err == node.ErrNotFound {
		// §4.3 step 4: a 404 on an output means it was pruned.
		addr.MarkSpent(id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := &account.AddressOutput{
		TransactionID: id.TransactionID,
		Index:         id.Index,
		Amount:        resp.Amount,
		Kind:          resp.Kind,
		IsSpent:       resp.IsSpent,
		MessageID:     resp.MessageID,
		Address:       resp.Address,
	}
	addr.Upsert(out)

	return r.resolveMessage(ctx, resp.MessageID, opts)
}

// resolveMessage fetches a message unless it is already cached and
// confirmed (§3: "Only confirmed messages are treated as authoritative").
// The cache consulted is this Reconciler's own messageCache; the
// account's stored messages are not checked here.
func (r *Reconciler) resolveMessage(ctx context.Context, id common.MessageID, opts Options) (*account.Message, error) {
	if r.messageCache != nil {
		if cached, ok := r.messageCache.Get(id); ok {
			return cached.(*account.Message), nil
		}
	}

	resp, err := r.Node.GetMessage(ctx, id)
	if err == node.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		if opts.SyncSpentOutputs {
			return nil, err
		}
		logger.Warn("eliding message fetch failure", "message", id, "err", err)
		return nil, nil
	}

	msg := &account.Message{ID: resp.ID, Confirmed: translateConfirmation(resp.Confirmed)}
	if resp.Transaction != nil {
		tx := &account.Transaction{ID: resp.Transaction.ID}
		for _, in := range resp.Transaction.Inputs {
			tx.Inputs = append(tx.Inputs, account.TxInput{OutputID: in.OutputID})
		}
		for _, out := range resp.Transaction.Outputs {
			tx.Outputs = append(tx.Outputs, account.TxOutput{Address: out.Address, Amount: out.Amount, Kind: out.Kind})
		}
		msg.Payload = tx
	}
	// Only a confirmed message is terminal for caching purposes (§4.9):
	// an Unknown/Conflicting message must stay re-fetchable so a later
	// transition to Confirmed is observed and the §4.7
	// ConfirmationStateChange event still fires.
	if r.messageCache != nil && msg.Confirmed == account.ConfirmationConfirmed {
		r.messageCache.Add(id, msg)
	}
	return msg, nil
}

func translateConfirmation(c node.Confirmation) account.Confirmation {
	switch c {
	case node.ConfirmationConfirmed:
		return account.ConfirmationConfirmed
	case node.ConfirmationConflicting:
		return account.ConfirmationConflicting
	default:
		return account.ConfirmationUnknown
	}
}

// AddressResult is one address's reconciliation outcome, used by
// ReconcileMany and consumed by the Scanner's batch-empty check.
type AddressResult struct {
	Address  *account.Address
	Messages []*account.Message
	Err      error
}

// ConsolidationCandidates returns the unspent Single output ids at addr
// worth sweeping together ahead of a large input selection, once
// fragmentation passes params.ConsolidationThreshold (SPEC_FULL.md
// supplement 2). It changes nothing about selection semantics; it is an
// optional pre-step the Transfer Builder may call.
func (r *Reconciler) ConsolidationCandidates(addr *account.Address) []common.OutputID {
	var ids []common.OutputID
	for _, out := range addr.Outputs() {
		if out.IsSpent || out.Kind != common.OutputSingle {
			continue
		}
		ids = append(ids, out.ID())
	}
	if len(ids) <= params.ConsolidationThreshold {
		return nil
	}
	return ids
}

// ReconcileMany fans ReconcileAddress out across addrs, chunked at
// ChunkSize in-flight addresses at a time (§4.3 concurrency: "address
// fetches run in parallel, chunked at SYNC_CHUNK_SIZE=500 to bound
// in-flight RPCs").
func (r *Reconciler) ReconcileMany(ctx context.Context, addrs []*account.Address, opts Options) []AddressResult {
	results := make([]AddressResult, len(addrs))
	chunk := r.chunkSize()
	for start := 0; start < len(addrs); start += chunk {
		end := start + chunk
		if end > len(addrs) {
			end = len(addrs)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				msgs, err := r.ReconcileAddress(ctx, addrs[i], opts)
				results[i] = AddressResult{Address: addrs[i], Messages: msgs, Err: err}
			}()
		}
		wg.Wait()
	}
	return results
}
