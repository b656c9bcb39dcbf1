package stableamm

import (
	"github.com/holiman/uint256"
)

// maxBalance is the largest amount a pool or account balance may hold.
var maxBalance = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// checked chains 256-bit arithmetic and latches the first overflow, underflow
// or division by zero. Once an error is recorded every further operation
// returns zero and the caller inspects err once at the end of the sequence.
type checked struct {
	err error
}

func (c *checked) fail() *uint256.Int {
	c.err = ErrArithmetic
	return new(uint256.Int)
}

func (c *checked) add(a, b *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return c.fail()
	}
	return z
}

func (c *checked) sub(a, b *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return c.fail()
	}
	return z
}

func (c *checked) mul(a, b *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return c.fail()
	}
	return z
}

func (c *checked) div(a, b *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	if b.IsZero() {
		return c.fail()
	}
	return new(uint256.Int).Div(a, b)
}

// mulDiv computes a*b/d, failing if the product overflows 256 bits.
func (c *checked) mulDiv(a, b, d *uint256.Int) *uint256.Int {
	return c.div(c.mul(a, b), d)
}

// balance narrows x to the 128-bit balance domain.
func (c *checked) balance(x *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	if x.BitLen() > 128 {
		return c.fail()
	}
	return x
}

// Distance returns |a-b|.
func Distance(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) >= 0 {
		return new(uint256.Int).Sub(a, b)
	}
	return new(uint256.Int).Sub(b, a)
}

// saturatingSub returns a-b or zero when b exceeds a.
func saturatingSub(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

// fitsBalance reports whether x is representable as a 128-bit balance.
func fitsBalance(x *uint256.Int) bool {
	return x != nil && x.BitLen() <= 128
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}

func cloneAmounts(xs []*uint256.Int) []*uint256.Int {
	if xs == nil {
		return nil
	}
	out := make([]*uint256.Int, len(xs))
	for i, x := range xs {
		out[i] = orZero(x).Clone()
	}
	return out
}

func zeroAmounts(n int) []*uint256.Int {
	out := make([]*uint256.Int, n)
	for i := range out {
		out[i] = new(uint256.Int)
	}
	return out
}

func allZero(xs []*uint256.Int) bool {
	for _, x := range xs {
		if x != nil && !x.IsZero() {
			return false
		}
	}
	return true
}

// tokenMultiplier returns 10^(PoolTokenCommonDecimals-decimals).
func tokenMultiplier(decimals uint8) (*uint256.Int, error) {
	if decimals > PoolTokenCommonDecimals {
		return nil, ErrInvalidCurrencyDecimal
	}
	return new(uint256.Int).Exp(u(10), u(uint64(PoolTokenCommonDecimals-decimals))), nil
}
