package walleterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsufficientFundsAsMatchesByType(t *testing.T) {
	wrapped := fmt.Errorf("transfer failed: %w", &InsufficientFunds{Have: 1, Want: 2})

	var target *InsufficientFunds
	require.True(t, errors.As(wrapped, &target))
	require.Equal(t, uint64(1), target.Have)
	require.Equal(t, uint64(2), target.Want)
}

func TestClientErrorUnwrapsToInnerCause(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	wrapped := &ClientError{Inner: inner}

	require.ErrorIs(t, wrapped, inner)
}

func TestSentinelsAreDistinct(t *testing.T) {
	require.False(t, errors.Is(ErrMessageNotFound, ErrNoNeedPromoteOrReattach))
}
