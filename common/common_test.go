package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRefBech32RoundTrip(t *testing.T) {
	ref := AddressRef{HRP: "atoi", Payload: [32]byte{1, 2, 3}}
	reparsed, err := ParseAddressRef(ref.Bech32())
	require.NoError(t, err)
	require.True(t, reparsed.Equal(ref))
	require.Equal(t, ref.HRP, reparsed.HRP)
	require.NoError(t, ref.Validate())
}

func TestAddressRefEqualityIgnoresHRP(t *testing.T) {
	a := AddressRef{HRP: "atoi", Payload: [32]byte{9}}
	b := AddressRef{HRP: "iota", Payload: [32]byte{9}}
	require.True(t, a.Equal(b))
}

func TestAddressRefIsZero(t *testing.T) {
	require.True(t, AddressRef{}.IsZero())
	require.False(t, AddressRef{Payload: [32]byte{1}}.IsZero())
}

func TestParseAddressRefRejectsMalformed(t *testing.T) {
	_, err := ParseAddressRef("not-an-address")
	require.Error(t, err)

	_, err = ParseAddressRef("atoi1zz")
	require.Error(t, err)
}

func TestOutputKindString(t *testing.T) {
	require.Equal(t, "Single", OutputSingle.String())
	require.Equal(t, "DustAllowance", OutputDustAllowance.String())
	require.Equal(t, "Treasury", OutputTreasury.String())
}

func TestNewLRUCacheAddGet(t *testing.T) {
	c, err := NewLRUCache(10)
	require.NoError(t, err)

	evicted := c.Add("k", "v")
	require.False(t, evicted)

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
	require.True(t, c.Contains("k"))

	c.Remove("k")
	require.False(t, c.Contains("k"))
}

func TestNewLRUCacheRejectsNonPositiveScaledSize(t *testing.T) {
	prev := CacheScale
	CacheScale = 0
	defer func() { CacheScale = prev }()

	_, err := NewLRUCache(10)
	require.Error(t, err)
}
