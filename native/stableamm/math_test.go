package stableamm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestCheckedArithmeticLatchesFirstError(t *testing.T) {
	c := new(checked)
	require.Equal(t, uint64(5), c.add(u(2), u(3)).Uint64())
	require.NoError(t, c.err)

	c.sub(u(2), u(3))
	require.ErrorIs(t, c.err, ErrArithmetic)
	require.True(t, c.add(u(1), u(1)).IsZero(), "operations after a failure yield zero")

	c = new(checked)
	top := new(uint256.Int).SetAllOne()
	c.mul(top, u(2))
	require.ErrorIs(t, c.err, ErrArithmetic)

	c = new(checked)
	c.add(top, u(1))
	require.ErrorIs(t, c.err, ErrArithmetic)

	c = new(checked)
	c.div(u(1), u(0))
	require.ErrorIs(t, c.err, ErrArithmetic)

	c = new(checked)
	c.mulDiv(u(6), u(7), u(0))
	require.ErrorIs(t, c.err, ErrArithmetic)
}

func TestCheckedBalanceNarrowsTo128Bits(t *testing.T) {
	c := new(checked)
	require.True(t, c.balance(maxBalance).Eq(maxBalance))
	require.NoError(t, c.err)

	c.balance(new(uint256.Int).AddUint64(maxBalance, 1))
	require.ErrorIs(t, c.err, ErrArithmetic)

	require.True(t, fitsBalance(maxBalance))
	require.False(t, fitsBalance(nil))
}

func TestDistanceAndSaturatingSub(t *testing.T) {
	require.Equal(t, uint64(4), Distance(u(10), u(6)).Uint64())
	require.Equal(t, uint64(4), Distance(u(6), u(10)).Uint64())
	require.True(t, Distance(u(3), u(3)).IsZero())

	require.Equal(t, uint64(1), saturatingSub(u(3), u(2)).Uint64())
	require.True(t, saturatingSub(u(2), u(3)).IsZero())
}

func TestTokenMultiplier(t *testing.T) {
	tests := []struct {
		decimals uint8
		want     string
		err      error
	}{
		{decimals: 18, want: "1"},
		{decimals: 6, want: "1000000000000"},
		{decimals: 0, want: "1000000000000000000"},
		{decimals: 19, err: ErrInvalidCurrencyDecimal},
	}
	for _, tc := range tests {
		got, err := tokenMultiplier(tc.decimals)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got.Dec())
	}
}

func TestFeePerToken(t *testing.T) {
	pool := &Pool{CurrencyIDs: []CurrencyID{"A", "B"}, Fee: 10_000_000}
	fee, err := pool.feePerToken()
	require.NoError(t, err)
	require.Equal(t, uint64(5_000_000), fee.Uint64())

	pool.CurrencyIDs = []CurrencyID{"A", "B", "C"}
	pool.Fee = 4_000_000
	fee, err = pool.feePerToken()
	require.NoError(t, err)
	require.Equal(t, uint64(1_500_000), fee.Uint64())

	pool.CurrencyIDs = []CurrencyID{"A"}
	_, err = pool.feePerToken()
	require.ErrorIs(t, err, ErrArithmetic)
}

var errTestBackend = errors.New("backend unavailable")

func TestErrorLabel(t *testing.T) {
	require.Equal(t, "ok", ErrorLabel(nil))
	require.Equal(t, "amount_slippage", ErrorLabel(ErrAmountSlippage))
	require.Equal(t, "insufficient_reserve", ErrorLabel(fmt.Errorf("%w: %w", ErrInsufficientReserve, errTestBackend)))
	require.Equal(t, "internal", ErrorLabel(errTestBackend))
}
