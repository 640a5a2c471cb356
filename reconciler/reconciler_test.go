package reconciler

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/node"
)

func TestReconcileAddressDiscoversNewOutput(t *testing.T) {
	fake := node.NewFake("atoi")
	ref := common.AddressRef{HRP: "atoi", Payload: [32]byte{1}}
	addr := account.NewAddress(0, false, ref)

	var txID common.TransactionID
	txID[0] = 7
	outID := common.OutputID{TransactionID: txID, Index: 0}
	var msgID common.MessageID
	msgID[0] = 7

	fake.SeedOutput(ref, &node.OutputResponse{OutputID: outID, Amount: 42, Address: ref, MessageID: msgID})
	fake.SeedMessage(&node.MessageResponse{ID: msgID, Confirmed: node.ConfirmationConfirmed})

	rec := New(fake)
	msgs, err := rec.ReconcileAddress(context.Background(), addr, Options{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, account.ConfirmationConfirmed, msgs[0].Confirmed)

	out, ok := addr.Output(outID)
	require.True(t, ok)
	require.Equal(t, uint64(42), out.Amount)
	require.False(t, out.IsSpent)
}

func TestReconcileAddressInfersPruneAsSpent(t *testing.T) {
	fake := node.NewFake("atoi")
	ref := common.AddressRef{HRP: "atoi", Payload: [32]byte{1}}
	addr := account.NewAddress(0, false, ref)

	var txID common.TransactionID
	txID[0] = 3
	outID := common.OutputID{TransactionID: txID, Index: 0}

	fake.SeedOutput(ref, &node.OutputResponse{OutputID: outID, Amount: 10, Address: ref})
	rec := New(fake)
	_, err := rec.ReconcileAddress(context.Background(), addr, Options{})
	require.NoError(t, err)

	_, ok := addr.Output(outID)
	require.True(t, ok)

	// The node prunes the output (simulating it being spent).
	fake.RemoveOutput(ref, outID)
	_, err = rec.ReconcileAddress(context.Background(), addr, Options{})
	require.NoError(t, err)

	out, ok := addr.Output(outID)
	if !ok {
		t.Fatalf("output missing after prune, address state: %s", spew.Sdump(addr))
	}
	require.True(t, out.IsSpent)
}

func TestResolveMessageDoesNotCacheUntilConfirmed(t *testing.T) {
	fake := node.NewFake("atoi")
	var msgID common.MessageID
	msgID[0] = 4

	fake.SeedMessage(&node.MessageResponse{ID: msgID, Confirmed: node.ConfirmationUnknown})
	rec := New(fake)

	msg, err := rec.resolveMessage(context.Background(), msgID, Options{})
	require.NoError(t, err)
	require.Equal(t, account.ConfirmationUnknown, msg.Confirmed)

	// The node later confirms the message; since it was never cached in
	// its unconfirmed state, the re-fetch observes the transition.
	fake.SeedMessage(&node.MessageResponse{ID: msgID, Confirmed: node.ConfirmationConfirmed})
	msg, err = rec.resolveMessage(context.Background(), msgID, Options{})
	require.NoError(t, err)
	require.Equal(t, account.ConfirmationConfirmed, msg.Confirmed)
}

func TestConsolidationCandidatesThreshold(t *testing.T) {
	ref := common.AddressRef{Payload: [32]byte{1}}
	addr := account.NewAddress(0, false, ref)
	for i := byte(0); i < 3; i++ {
		var txID common.TransactionID
		txID[0] = i + 1
		addr.Upsert(&account.AddressOutput{TransactionID: txID, Amount: 100, Kind: common.OutputSingle})
	}

	rec := New(node.NewFake("atoi"))
	candidates := rec.ConsolidationCandidates(addr)
	require.Len(t, candidates, 3)
}
