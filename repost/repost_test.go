package repost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/node"
	"github.com/iotaledger/wallet.go/storage"
	"github.com/iotaledger/wallet.go/walleterr"
)

func seedMessage(t *testing.T, handle *account.Handle, msgID common.MessageID, inputID common.OutputID) {
	t.Helper()
	handle.Write(func(a *account.Account) {
		a.SaveMessage(&account.Message{
			ID: msgID,
			Payload: &account.Transaction{
				ID:      common.TransactionID(msgID),
				Inputs:  []account.TxInput{{OutputID: inputID}},
				Outputs: []account.TxOutput{{Address: common.AddressRef{Payload: [32]byte{9}}, Amount: 1, Kind: common.OutputSingle}},
			},
		})
	})
}

func TestRepostNoNeedWhenInputSpent(t *testing.T) {
	fake := node.NewFake("atoi")
	a := account.New(0, "software", "atoi", "", nil)
	handle := account.NewHandle(a)

	var msgID common.MessageID
	msgID[0] = 1
	var txID common.TransactionID
	txID[0] = 2
	inputID := common.OutputID{TransactionID: txID, Index: 0}

	seedMessage(t, handle, msgID, inputID)
	fake.SeedOutput(common.AddressRef{Payload: [32]byte{1}}, &node.OutputResponse{OutputID: inputID, Amount: 5, IsSpent: true})

	e := New(fake, storage.NewMemory())
	_, err := e.Repost(context.Background(), handle, 0, msgID, node.ActionRetry)
	require.ErrorIs(t, err, walleterr.ErrNoNeedPromoteOrReattach)
}

func TestRepostMessageNotFound(t *testing.T) {
	fake := node.NewFake("atoi")
	a := account.New(0, "software", "atoi", "", nil)
	handle := account.NewHandle(a)

	e := New(fake, storage.NewMemory())
	var unknown common.MessageID
	_, err := e.Repost(context.Background(), handle, 0, unknown, node.ActionRetry)
	require.ErrorIs(t, err, walleterr.ErrMessageNotFound)
}

func TestRepostFallsBackToLocalReconstruction(t *testing.T) {
	fake := node.NewFake("atoi")
	a := account.New(0, "software", "atoi", "", nil)
	handle := account.NewHandle(a)

	var msgID common.MessageID
	msgID[0] = 1
	var txID common.TransactionID
	txID[0] = 2
	inputID := common.OutputID{TransactionID: txID, Index: 0}

	seedMessage(t, handle, msgID, inputID)
	// Seed the input as present and unspent so the precondition check
	// passes through to the Repost RPC. The fake node has no record of
	// msgID, so that RPC fails with ErrNotFound and the engine falls back
	// to local reconstruction.
	fake.SeedOutput(common.AddressRef{Payload: [32]byte{1}}, &node.OutputResponse{OutputID: inputID, Amount: 5, IsSpent: false})

	e := New(fake, storage.NewMemory())
	result, err := e.Repost(context.Background(), handle, 0, msgID, node.ActionRetry)
	require.NoError(t, err)
	require.NotNil(t, result)
}
