package stableamm

import (
	"github.com/holiman/uint256"
)

// GetD solves the StableSwap invariant for the normalised balances xp and the
// precise amplification amp (A scaled by APrecision). It returns zero for an
// empty pool and ErrArithmetic when the iteration overflows or fails to
// converge within MaxIteration rounds.
func GetD(xp []*uint256.Int, amp uint64) (*uint256.Int, error) {
	c := new(checked)
	n := u(uint64(len(xp)))
	sum := new(uint256.Int)
	for _, x := range xp {
		sum = c.add(sum, x)
	}
	if c.err != nil {
		return nil, c.err
	}
	if sum.IsZero() {
		return new(uint256.Int), nil
	}

	ann := c.mul(u(amp), n)
	d := sum.Clone()
	for i := 0; i < MaxIteration; i++ {
		dp := d.Clone()
		for _, x := range xp {
			dp = c.mulDiv(dp, d, c.mul(x, n))
		}
		prev := d
		num := c.mul(c.add(c.div(c.mul(ann, sum), u(APrecision)), c.mul(dp, n)), d)
		den := c.add(
			c.div(c.mul(c.sub(ann, u(APrecision)), d), u(APrecision)),
			c.mul(c.add(n, u(1)), dp),
		)
		d = c.div(num, den)
		if c.err != nil {
			return nil, c.err
		}
		if Distance(d, prev).CmpUint64(1) <= 0 {
			if d = c.balance(d); c.err != nil {
				return nil, c.err
			}
			return d, nil
		}
	}
	return nil, ErrArithmetic
}

// GetY returns the normalised balance of currency out that keeps D constant
// once the normalised balance of currency in becomes x.
func GetY(amp uint64, in, out int, x *uint256.Int, xp []*uint256.Int) (*uint256.Int, error) {
	n := len(xp)
	if in == out || in < 0 || out < 0 || in >= n || out >= n {
		return nil, ErrArithmetic
	}
	d, err := GetD(xp, amp)
	if err != nil {
		return nil, err
	}
	others := make([]*uint256.Int, 0, n-1)
	for k := 0; k < n; k++ {
		switch k {
		case in:
			others = append(others, x)
		case out:
		default:
			others = append(others, xp[k])
		}
	}
	return solveY(amp, n, d, others)
}

// GetYD returns the normalised balance of currency index that satisfies the
// invariant d given the remaining balances of xp.
func GetYD(amp uint64, index int, xp []*uint256.Int, d *uint256.Int) (*uint256.Int, error) {
	n := len(xp)
	if index < 0 || index >= n {
		return nil, ErrArithmetic
	}
	others := make([]*uint256.Int, 0, n-1)
	for k := 0; k < n; k++ {
		if k != index {
			others = append(others, xp[k])
		}
	}
	return solveY(amp, n, d, others)
}

// solveY runs the Newton iteration for the single unknown balance given the
// n-1 known balances.
func solveY(amp uint64, count int, d *uint256.Int, others []*uint256.Int) (*uint256.Int, error) {
	c := new(checked)
	n := u(uint64(count))
	ann := c.mul(u(amp), n)

	sum := new(uint256.Int)
	cc := d.Clone()
	for _, x := range others {
		sum = c.add(sum, x)
		cc = c.mulDiv(cc, d, c.mul(x, n))
	}
	cc = c.div(c.mul(c.mul(cc, d), u(APrecision)), c.mul(ann, n))
	b := c.add(sum, c.div(c.mul(d, u(APrecision)), ann))
	if c.err != nil {
		return nil, c.err
	}

	y := d.Clone()
	for i := 0; i < MaxIteration; i++ {
		prev := y
		num := c.add(c.mul(y, y), cc)
		den := c.sub(c.add(c.mul(y, u(2)), b), d)
		y = c.div(num, den)
		if c.err != nil {
			return nil, c.err
		}
		if Distance(y, prev).CmpUint64(1) <= 0 {
			if y = c.balance(y); c.err != nil {
				return nil, c.err
			}
			return y, nil
		}
	}
	return nil, ErrArithmetic
}

// normalize scales balances to PoolTokenCommonDecimals.
func normalize(balances, multipliers []*uint256.Int) ([]*uint256.Int, error) {
	if len(balances) != len(multipliers) {
		return nil, ErrMismatchParameter
	}
	c := new(checked)
	xp := make([]*uint256.Int, len(balances))
	for i, bal := range balances {
		xp[i] = c.balance(c.mul(orZero(bal), multipliers[i]))
	}
	if c.err != nil {
		return nil, c.err
	}
	return xp, nil
}
