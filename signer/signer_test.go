package signer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
)

func TestSoftwareDeriveIsDeterministic(t *testing.T) {
	sg := NewSoftware([]byte("a-seed"))

	a, err := sg.Derive(context.Background(), 3, false, "atoi", DeriveOptions{})
	require.NoError(t, err)
	b, err := sg.Derive(context.Background(), 3, false, "atoi", DeriveOptions{})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := sg.Derive(context.Background(), 3, true, "atoi", DeriveOptions{})
	require.NoError(t, err)
	require.False(t, c.Equal(a))
}

func TestSoftwareSignProducesVerifiableUnlocks(t *testing.T) {
	sg := NewSoftware([]byte("sign-seed"))
	var txID common.TransactionID
	txID[0] = 1
	ess := &essence.Essence{
		Inputs:  []essence.Input{{OutputID: common.OutputID{TransactionID: txID, Index: 0}}},
		Outputs: []essence.Output{{Address: common.AddressRef{Payload: [32]byte{2}}, Amount: 10}},
	}
	ess.Canonicalize()

	blocks, err := sg.Sign(context.Background(), ess, []InputMeta{{AddressIndex: 0, Internal: false}}, SignMetadata{})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, -1, essence.VerifyAll(ess.Hash(), blocks))
}

func TestSoftwareCapabilityIsNotHardware(t *testing.T) {
	sg := NewSoftware([]byte("cap-seed"))
	capa := sg.Capability()
	require.False(t, capa.IsHardware)
	require.Greater(t, capa.MaxInputsPlusOutputs, 0)
}

func TestHardwareLockedRejectsDeriveAndSign(t *testing.T) {
	hw := NewHardware([]byte("hw-seed"))
	hw.SetLocked(true)

	_, err := hw.Derive(context.Background(), 0, false, "atoi", DeriveOptions{})
	require.Error(t, err)
	var unavailable *ErrSignerUnavailable
	require.ErrorAs(t, err, &unavailable)

	_, err = hw.Sign(context.Background(), &essence.Essence{}, nil, SignMetadata{})
	require.Error(t, err)
}

func TestHardwareCapabilityReportsSeventeenCap(t *testing.T) {
	hw := NewHardware([]byte("hw-seed-2"))
	capa := hw.Capability()
	require.True(t, capa.IsHardware)
	require.Equal(t, 17, capa.MaxInputsPlusOutputs)
}

func TestHardwareMatchesSoftwareDerivationWhenUnlocked(t *testing.T) {
	seed := []byte("shared-seed")
	sg := NewSoftware(seed)
	hw := NewHardware(seed)

	a, err := sg.Derive(context.Background(), 2, false, "atoi", DeriveOptions{})
	require.NoError(t, err)
	b, err := hw.Derive(context.Background(), 2, false, "atoi", DeriveOptions{})
	require.NoError(t, err)
	require.Equal(t, a, b)
}
