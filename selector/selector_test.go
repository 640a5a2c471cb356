package selector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/signer"
	"github.com/iotaledger/wallet.go/walleterr"
)

func newOutput(txByte byte, amount uint64, addr common.AddressRef) *account.AddressOutput {
	var txID common.TransactionID
	txID[0] = txByte
	return &account.AddressOutput{TransactionID: txID, Amount: amount, Kind: common.OutputSingle, Address: addr}
}

func TestSelectGreedyAndRemainder(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	addrB := common.AddressRef{Payload: [32]byte{2}}

	candidates := []Candidate{
		{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{newOutput(1, 1_000_000, addrA)}},
		{Address: addrB, KeyIndex: 1, Outputs: []*account.AddressOutput{newOutput(2, 2_000_000, addrB)}},
	}
	locked := account.NewLockedOutputs()

	selected, remainder, err := Select(1_500_000, candidates, 1, signer.Capability{MaxInputsPlusOutputs: 127}, nil, locked, nil)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.NotNil(t, remainder)
	require.Equal(t, uint64(1_500_000), remainder.Amount)

	// Selected inputs are now reserved.
	for _, s := range selected {
		require.True(t, locked.Contains(s.Output.ID()))
	}
}

func TestSelectExcludesDestinationOverBudget(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	candidates := []Candidate{
		{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{newOutput(1, 10_000_000, addrA)}},
	}
	locked := account.NewLockedOutputs()

	_, _, err := Select(1_000, candidates, 1, signer.Capability{MaxInputsPlusOutputs: 127}, []common.AddressRef{addrA}, locked, nil)
	var insufficient *walleterr.InsufficientFunds
	require.ErrorAs(t, err, &insufficient)
}

func TestSelectHardwareTooManyOutputs(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	candidates := []Candidate{
		{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{newOutput(1, 1, addrA)}},
	}
	locked := account.NewLockedOutputs()

	_, _, err := Select(1, candidates, 17, signer.Capability{MaxInputsPlusOutputs: 17, IsHardware: true}, nil, locked, nil)
	var tooMany *walleterr.TooManyOutputs
	require.ErrorAs(t, err, &tooMany)
	require.Equal(t, 17, tooMany.Count)
	require.Equal(t, 16, tooMany.Max)
}

func TestSelectForceIncludesPinnedInput(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	addrB := common.AddressRef{Payload: [32]byte{2}}
	small := newOutput(1, 100_000, addrA)
	big := newOutput(2, 5_000_000, addrB)

	candidates := []Candidate{
		{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{small}},
		{Address: addrB, KeyIndex: 1, Outputs: []*account.AddressOutput{big}},
	}
	locked := account.NewLockedOutputs()

	// Greedy-by-candidate-order would reach for `small` first and never
	// need `big`; pinning `big` forces it in regardless.
	selected, _, err := Select(100_000, candidates, 1, signer.Capability{MaxInputsPlusOutputs: 127}, nil, locked, []common.OutputID{big.ID()})
	require.NoError(t, err)

	var sawBig bool
	for _, s := range selected {
		if s.Output.ID() == big.ID() {
			sawBig = true
		}
	}
	require.True(t, sawBig)
}

func TestSelectRejectsPinnedInputAlreadyLocked(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	out := newOutput(1, 1_000_000, addrA)
	candidates := []Candidate{{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{out}}}
	locked := account.NewLockedOutputs()
	locked.Lock([]common.OutputID{out.ID()})

	_, _, err := Select(500_000, candidates, 1, signer.Capability{MaxInputsPlusOutputs: 127}, nil, locked, []common.OutputID{out.ID()})
	require.ErrorIs(t, err, walleterr.ErrPinnedInputUnavailable)
}

func TestSelectRejectsUnknownPinnedInput(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	candidates := []Candidate{{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{newOutput(1, 1_000_000, addrA)}}}
	locked := account.NewLockedOutputs()

	var unknownTx common.TransactionID
	unknownTx[0] = 99
	_, _, err := Select(500_000, candidates, 1, signer.Capability{MaxInputsPlusOutputs: 127}, nil, locked, []common.OutputID{{TransactionID: unknownTx}})
	require.ErrorIs(t, err, walleterr.ErrPinnedInputUnavailable)
}

func TestSelectSkipsLockedOutputs(t *testing.T) {
	addrA := common.AddressRef{Payload: [32]byte{1}}
	out := newOutput(1, 5_000_000, addrA)
	candidates := []Candidate{{Address: addrA, KeyIndex: 0, Outputs: []*account.AddressOutput{out}}}
	locked := account.NewLockedOutputs()
	locked.Lock([]common.OutputID{out.ID()})

	_, _, err := Select(1_000_000, candidates, 1, signer.Capability{MaxInputsPlusOutputs: 127}, nil, locked, nil)
	var insufficient *walleterr.InsufficientFunds
	require.ErrorAs(t, err, &insufficient)
}
