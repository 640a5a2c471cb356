// Package repost implements the Repost Engine (§4.8): retry, reattach and
// promote operations over a previously submitted message, grounded on the
// teacher's bridge transaction pool's resend-on-missing-receipt loop
// (node/sc/bridge_tx_pool.go), generalized from "known tx not yet mined"
// to "known message not yet included".
package repost

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
	"github.com/iotaledger/wallet.go/log"
	"github.com/iotaledger/wallet.go/node"
	"github.com/iotaledger/wallet.go/storage"
	"github.com/iotaledger/wallet.go/walleterr"
)

var logger = log.NewModuleLogger(log.Repost)

// Engine is the Repost Engine (§4.8).
type Engine struct {
	Node    node.Node
	Storage storage.Storage
}

// New returns a Repost Engine over the given Node collaborator.
func New(n node.Node, st storage.Storage) *Engine {
	return &Engine{Node: n, Storage: st}
}

// Repost implements §4.8 for a single stored message.
func (e *Engine) Repost(ctx context.Context, handle *account.Handle, accountIndex uint32, msgID common.MessageID, action node.RepostAction) (*account.Message, error) {
	var msg *account.Message
	handle.Read(func(a *account.Account) {
		if m, ok := a.Message(msgID); ok {
			msg = m
		}
	})
	if msg == nil {
		return nil, walleterr.ErrMessageNotFound
	}

	if msg.Payload != nil {
		if noNeed, err := e.alreadySettled(ctx, msg.Payload); err != nil {
			return nil, err
		} else if noNeed {
			return nil, walleterr.ErrNoNeedPromoteOrReattach
		}
	}

	newID, resp, err := e.repostWithRetry(ctx, action, msgID)
	if err != nil {
		if errors.Is(err, walleterr.ErrNoNeedPromoteOrReattach) {
			return nil, err
		}
		if action == node.ActionRetry || action == node.ActionReattach {
			logger.Warn("node repost failed, falling back to local reconstruction", "message", msgID, "action", action, "err", err)
			return e.repostLocally(ctx, handle, accountIndex, msg)
		}
		return nil, &walleterr.ClientError{Inner: err}
	}

	updated := &account.Message{ID: newID, Confirmed: translateConfirmation(resp), Payload: msg.Payload}
	e.persist(handle, accountIndex, updated)
	return updated, nil
}

// alreadySettled implements §4.8's preconditions: any spent input, or an
// already-included transaction, means there is nothing to do.
func (e *Engine) alreadySettled(ctx context.Context, tx *account.Transaction) (bool, error) {
	for _, in := range tx.Inputs {
		resp, err := e.Node.GetOutput(ctx, in.OutputID)
		if err == node.ErrNotFound {
			// A pruned output is presumed spent (§4.3 step 2).
			return true, nil
		}
		if err != nil {
			return false, &walleterr.ClientError{Inner: err}
		}
		if resp.IsSpent {
			return true, nil
		}
	}
	if _, err := e.Node.GetIncludedMessage(ctx, tx.ID); err == nil {
		return true, nil
	} else if err != node.ErrNotFound {
		return false, &walleterr.ClientError{Inner: err}
	}
	return false, nil
}

// repostWithRetry wraps the node RPC in a short bounded backoff, matching
// the teacher's transient-RPC-failure retry shape rather than surfacing
// the first network blip as a hard error.
func (e *Engine) repostWithRetry(ctx context.Context, action node.RepostAction, msgID common.MessageID) (common.MessageID, *node.MessageResponse, error) {
	var (
		newID common.MessageID
		resp  *node.MessageResponse
	)
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	operation := func() error {
		var err error
		newID, resp, err = e.Node.Repost(ctx, action, msgID)
		return err
	}
	if err := backoff.Retry(operation, policy); err != nil {
		return common.MessageID{}, nil, err
	}
	return newID, resp, nil
}

// repostLocally reconstructs the original transaction payload and submits
// it directly, the §4.8 fallback path for a Retry/Reattach RPC that fails
// for a reason other than "no need".
func (e *Engine) repostLocally(ctx context.Context, handle *account.Handle, accountIndex uint32, msg *account.Message) (*account.Message, error) {
	if msg.Payload == nil {
		return nil, walleterr.ErrMessageNotFound
	}
	var ess essence.Essence
	for _, in := range msg.Payload.Inputs {
		ess.Inputs = append(ess.Inputs, essence.Input{OutputID: in.OutputID})
	}
	for _, out := range msg.Payload.Outputs {
		ess.Outputs = append(ess.Outputs, essence.Output{Address: out.Address, Amount: out.Amount, Kind: out.Kind})
	}

	wire := &node.MessageResponse{
		ID: msg.ID,
		Transaction: &node.TransactionPayload{
			ID:      msg.Payload.ID,
			Inputs:  wireInputs(ess.Inputs),
			Outputs: wireOutputs(ess.Outputs),
		},
	}
	newID, err := e.Node.PostMessage(ctx, wire)
	if err != nil {
		return nil, &walleterr.ClientError{Inner: err}
	}

	updated := &account.Message{ID: newID, Confirmed: account.ConfirmationUnknown, Payload: msg.Payload}
	e.persist(handle, accountIndex, updated)
	return updated, nil
}

func (e *Engine) persist(handle *account.Handle, accountIndex uint32, msg *account.Message) {
	handle.Write(func(a *account.Account) { a.SaveMessage(msg) })
	if e.Storage != nil {
		if err := e.Storage.SaveMessages(accountIndex, []*account.Message{msg}); err != nil {
			logger.Warn("failed to persist reposted message", "err", err)
		}
	}
}

func translateConfirmation(resp *node.MessageResponse) account.Confirmation {
	if resp == nil {
		return account.ConfirmationUnknown
	}
	switch resp.Confirmed {
	case node.ConfirmationConfirmed:
		return account.ConfirmationConfirmed
	case node.ConfirmationConflicting:
		return account.ConfirmationConflicting
	default:
		return account.ConfirmationUnknown
	}
}

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
