package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/wallet.go/account"
	"github.com/iotaledger/wallet.go/common"
)

func TestMemorySaveAccountOverwritesByIndex(t *testing.T) {
	m := NewMemory()
	a := account.New(0, "software", "atoi", "", nil)
	require.NoError(t, m.SaveAccount(a))
	require.Same(t, a, m.Accounts[0])

	b := account.New(0, "software", "atoi", "", nil)
	require.NoError(t, m.SaveAccount(b))
	require.Same(t, b, m.Accounts[0])
}

func TestMemorySaveMessagesAppends(t *testing.T) {
	m := NewMemory()
	var id1, id2 common.MessageID
	id1[0], id2[0] = 1, 2

	require.NoError(t, m.SaveMessages(0, []*account.Message{{ID: id1}}))
	require.NoError(t, m.SaveMessages(0, []*account.Message{{ID: id2}}))
	require.Len(t, m.Messages[0], 2)
}

func TestMemorySaveAddressesIsPerAccount(t *testing.T) {
	m := NewMemory()
	ref := common.AddressRef{HRP: "atoi", Payload: [32]byte{1}}
	addr := account.NewAddress(0, false, ref)

	require.NoError(t, m.SaveAddresses(0, []*account.Address{addr}))
	require.NoError(t, m.SaveAddresses(1, nil))
	require.Len(t, m.Addresses[0], 1)
	require.Empty(t, m.Addresses[1])
}

func TestMemoryClose(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
}
