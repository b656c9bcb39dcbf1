package stableamm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func amt(t *testing.T, dec string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(dec)
	require.NoError(t, err)
	return v
}

func amounts(t *testing.T, decs ...string) []*uint256.Int {
	t.Helper()
	out := make([]*uint256.Int, len(decs))
	for i, dec := range decs {
		out[i] = amt(t, dec)
	}
	return out
}

const e18 = "1000000000000000000"

func TestGetDEmptyPoolIsZero(t *testing.T) {
	d, err := GetD(amounts(t, "0", "0"), 5_000)
	require.NoError(t, err)
	require.True(t, d.IsZero())
}

func TestGetDBalancedPoolEqualsSum(t *testing.T) {
	d, err := GetD(amounts(t, e18, e18), 5_000)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", d.Dec())
}

func TestGetDImbalancedPool(t *testing.T) {
	d, err := GetD(amounts(t, e18, "3000000000000000000", "2000000000000000000"), 5_000)
	require.NoError(t, err)
	require.Equal(t, "5987039587641197907", d.Dec())
}

func TestGetDOverflowIsArithmetic(t *testing.T) {
	_, err := GetD([]*uint256.Int{maxBalance, maxBalance}, 5_000)
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestSolverRoundTrip(t *testing.T) {
	cases := [][]*uint256.Int{
		amounts(t, e18, e18),
		amounts(t, e18, "3000000000000000000", "2000000000000000000"),
		amounts(t, "5000000000000000000", "700000000000000000"),
	}
	for _, xp := range cases {
		d, err := GetD(xp, 5_000)
		require.NoError(t, err)

		yd, err := GetYD(5_000, 1, xp, d)
		require.NoError(t, err)
		require.LessOrEqual(t, Distance(yd, xp[1]).Uint64(), uint64(1))

		y, err := GetY(5_000, 0, 1, xp[0], xp)
		require.NoError(t, err)
		require.LessOrEqual(t, Distance(y, xp[1]).Uint64(), uint64(1))
	}
}

func TestGetYRejectsInvalidIndexes(t *testing.T) {
	xp := amounts(t, e18, e18)
	for _, idx := range [][2]int{{0, 0}, {-1, 1}, {0, 2}, {2, 0}} {
		_, err := GetY(5_000, idx[0], idx[1], xp[0], xp)
		require.ErrorIs(t, err, ErrArithmetic)
	}
	_, err := GetYD(5_000, 2, xp, amt(t, "2000000000000000000"))
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestGetYQuotesSwap(t *testing.T) {
	xp := amounts(t, e18, e18)
	x := amt(t, "1100000000000000000")
	y, err := GetY(5_000, 0, 1, x, xp)
	require.NoError(t, err)
	// dy before fees is xp[1]-y-1.
	dy := new(uint256.Int).Sub(new(uint256.Int).Sub(xp[1], y), uint256.NewInt(1))
	require.Equal(t, "99802413976541830", dy.Dec())
}
