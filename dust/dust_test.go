package dust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
	"github.com/iotaledger/wallet.go/params"
	"github.com/iotaledger/wallet.go/walleterr"
)

func TestAdmitAllowsWithSufficientAllowance(t *testing.T) {
	addr := common.AddressRef{Payload: [32]byte{1}}
	p := Projection{
		Address:         addr,
		Current:         account.BalanceBreakdown{DustAllowance: params.DustDivisor * 5, DustCount: 4},
		DeltaDustCount:  1,
		NodeDustAllowed: false,
	}
	require.NoError(t, Admit(p))
}

func TestAdmitRejectsBeyondAllowance(t *testing.T) {
	addr := common.AddressRef{Payload: [32]byte{1}}
	p := Projection{
		Address:        addr,
		Current:        account.BalanceBreakdown{DustAllowance: params.DustDivisor, DustCount: 1},
		DeltaDustCount: 1,
	}
	err := Admit(p)
	var dustErr *walleterr.DustError
	require.ErrorAs(t, err, &dustErr)
}

func TestAdmitFastPath(t *testing.T) {
	addr := common.AddressRef{Payload: [32]byte{1}}
	p := Projection{
		Address:         addr,
		Current:         account.BalanceBreakdown{Single: 1000},
		DeltaDustCount:  1,
		NodeDustAllowed: true,
	}
	require.NoError(t, Admit(p))
}

func TestDeltaTracksOutputsPerAddress(t *testing.T) {
	addr := common.AddressRef{Payload: [32]byte{1}}
	other := common.AddressRef{Payload: [32]byte{2}}

	outputs := []essence.Output{
		{Address: addr, Amount: 500, Kind: common.OutputSingle},
		{Address: other, Amount: 999, Kind: common.OutputSingle},
	}

	deltaAllowance, deltaCount := Delta(addr, nil, outputs)
	require.Equal(t, int64(0), deltaAllowance)
	require.Equal(t, 1, deltaCount)
}
