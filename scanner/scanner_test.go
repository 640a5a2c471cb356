package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/node"
	"github.com/iotaledger/wallet.go/reconciler"
	"github.com/iotaledger/wallet.go/signer"
)

// TestSweepTrimsToLastUsedPlusOne exercises §8 scenario S3: addresses used
// at indices 0-3 out of a gap limit of 10 should leave exactly one
// trailing unused address (index 4) in the kept result, not the full
// derived batch.
func TestSweepTrimsToLastUsedPlusOne(t *testing.T) {
	fake := node.NewFake("atoi")
	sg := signer.NewSoftware([]byte("seed-s3"))
	rec := reconciler.New(fake)
	sc := New(sg, rec)

	for idx := uint32(0); idx <= 3; idx++ {
		ref, err := sg.Derive(context.Background(), idx, false, "atoi", signer.DeriveOptions{})
		require.NoError(t, err)
		var txID common.TransactionID
		txID[0] = byte(idx + 1)
		fake.SeedOutput(ref, &node.OutputResponse{
			OutputID: common.OutputID{TransactionID: txID, Index: 0},
			Amount:   1_000_000,
			Address:  ref,
		})
	}

	result, err := sc.Sweep(context.Background(), "atoi", false, 0, 10, reconciler.Options{})
	require.NoError(t, err)
	require.False(t, result.Aborted)
	require.Len(t, result.Addresses, 5)
	for i, addr := range result.Addresses {
		require.Equal(t, uint32(i), addr.KeyIndex)
	}
	require.True(t, result.Addresses[3].IsUsed())
	require.False(t, result.Addresses[4].IsUsed())
}

func TestSweepAbortsOnLockedHardwareSigner(t *testing.T) {
	fake := node.NewFake("atoi")
	hw := signer.NewHardware([]byte("seed-hw"))
	hw.SetLocked(true)
	rec := reconciler.New(fake)
	sc := New(hw, rec)

	result, err := sc.Sweep(context.Background(), "atoi", false, 0, 10, reconciler.Options{})
	require.NoError(t, err)
	require.True(t, result.Aborted)
	require.Empty(t, result.Addresses)
}
