package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/common"
)

func TestFakeOutputsExcludesSpentUnlessRequested(t *testing.T) {
	f := NewFake("atoi")
	ref := common.AddressRef{HRP: "atoi", Payload: [32]byte{1}}
	var spentTx, liveTx common.TransactionID
	spentTx[0], liveTx[0] = 1, 2
	spent := common.OutputID{TransactionID: spentTx}
	live := common.OutputID{TransactionID: liveTx}

	f.SeedOutput(ref, &OutputResponse{OutputID: spent, IsSpent: true})
	f.SeedOutput(ref, &OutputResponse{OutputID: live, IsSpent: false})

	ids, err := f.Outputs(context.Background(), ref, OutputsOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, []common.OutputID{live}, ids)

	all, err := f.Outputs(context.Background(), ref, OutputsOptions{IncludeSpent: true})
	require.NoError(t, err)
	require.ElementsMatch(t, []common.OutputID{spent, live}, all)
}

func TestFakeRemoveOutputDropsFromListing(t *testing.T) {
	f := NewFake("atoi")
	ref := common.AddressRef{Payload: [32]byte{2}}
	var txID common.TransactionID
	txID[0] = 9
	id := common.OutputID{TransactionID: txID}
	f.SeedOutput(ref, &OutputResponse{OutputID: id})

	f.RemoveOutput(ref, id)
	ids, err := f.Outputs(context.Background(), ref, OutputsOptions{IncludeSpent: true})
	require.NoError(t, err)
	require.Empty(t, ids)

	// GetOutput still answers the underlying fixture: RemoveOutput only
	// simulates the output dropping out of the address listing.
	_, err = f.GetOutput(context.Background(), id)
	require.NoError(t, err)
}

func TestFakeGetOutputNotFound(t *testing.T) {
	f := NewFake("atoi")
	_, err := f.GetOutput(context.Background(), common.OutputID{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFakeBalanceDerivesFromUnspentOutputsByDefault(t *testing.T) {
	f := NewFake("atoi")
	ref := common.AddressRef{Payload: [32]byte{3}}
	var txID common.TransactionID
	txID[0] = 1
	f.SeedOutput(ref, &OutputResponse{OutputID: common.OutputID{TransactionID: txID}, Amount: 7})

	resp, err := f.Balance(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, uint64(7), resp.Balance)
}

func TestFakeBalancePrefersExplicitFixture(t *testing.T) {
	f := NewFake("atoi")
	ref := common.AddressRef{Payload: [32]byte{4}}
	f.SeedBalance(ref, &BalanceResponse{Balance: 99, DustAllowed: true})

	resp, err := f.Balance(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, uint64(99), resp.Balance)
	require.True(t, resp.DustAllowed)
}

func TestFakePostMessageHonorsSimulatedError(t *testing.T) {
	f := NewFake("atoi")
	f.PostErr = ErrNotFound

	var id common.MessageID
	id[0] = 1
	_, err := f.PostMessage(context.Background(), &MessageResponse{ID: id})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFakeRepostReturnsStoredMessage(t *testing.T) {
	f := NewFake("atoi")
	var id common.MessageID
	id[0] = 5
	f.SeedMessage(&MessageResponse{ID: id, Confirmed: ConfirmationConfirmed})

	newID, resp, err := f.Repost(context.Background(), ActionRetry, id)
	require.NoError(t, err)
	require.Equal(t, id, newID)
	require.Equal(t, ConfirmationConfirmed, resp.Confirmed)
}
