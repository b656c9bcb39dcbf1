package stableamm

import (
	"github.com/holiman/uint256"
)

func (p *Pool) normalized() ([]*uint256.Int, error) {
	return normalize(p.Balances, p.TokenMultipliers)
}

// feePerToken spreads the swap fee over an n-currency imbalance:
// fee * n / (4 * (n-1)).
func (p *Pool) feePerToken() (*uint256.Int, error) {
	n := uint64(p.CurrencyCount())
	if n < 2 {
		return nil, ErrArithmetic
	}
	c := new(checked)
	fee := c.div(c.mul(u(p.Fee), u(n)), c.mul(u(n-1), u(4)))
	if c.err != nil {
		return nil, c.err
	}
	return fee, nil
}

// invariant returns D of the pool balances at amp.
func (p *Pool) invariant(amp uint64) (*uint256.Int, error) {
	xp, err := p.normalized()
	if err != nil {
		return nil, err
	}
	return GetD(xp, amp)
}

// invariantOf returns D of arbitrary raw balances under the pool multipliers.
func (p *Pool) invariantOf(balances []*uint256.Int, amp uint64) (*uint256.Int, error) {
	xp, err := normalize(balances, p.TokenMultipliers)
	if err != nil {
		return nil, err
	}
	return GetD(xp, amp)
}

// swapOutcome is the result of pricing a swap against the current balances.
type swapOutcome struct {
	dy       *uint256.Int
	fee      *uint256.Int
	adminFee *uint256.Int
}

// calculateSwap prices exchanging dx raw units of currency i for currency j.
func (p *Pool) calculateSwap(amp uint64, i, j int, dx *uint256.Int) (*swapOutcome, error) {
	n := p.CurrencyCount()
	if i == j {
		return nil, ErrSwapSameCurrency
	}
	if i < 0 || j < 0 || i >= n || j >= n {
		return nil, ErrCurrencyIndexOutRange
	}
	xp, err := p.normalized()
	if err != nil {
		return nil, err
	}
	c := new(checked)
	x := c.balance(c.add(xp[i], c.mul(orZero(dx), p.TokenMultipliers[i])))
	if c.err != nil {
		return nil, c.err
	}
	y, err := GetY(amp, i, j, x, xp)
	if err != nil {
		return nil, err
	}
	dy := c.div(c.sub(c.sub(xp[j], y), u(1)), p.TokenMultipliers[j])
	fee := c.div(c.mul(dy, u(p.Fee)), u(FeeDenominator))
	out := c.sub(dy, fee)
	admin := c.div(c.mul(fee, u(p.AdminFee)), u(FeeDenominator))
	if c.err != nil {
		return nil, c.err
	}
	return &swapOutcome{dy: out, fee: fee, adminFee: admin}, nil
}

// depositOutcome is the result of crediting amounts to the pool.
type depositOutcome struct {
	mint     *uint256.Int
	fees     []*uint256.Int
	balances []*uint256.Int
	d0       *uint256.Int
	d1       *uint256.Int
}

// calculateDeposit applies credited raw amounts to the pool and prices the LP
// mint, charging the imbalance fee on every deposit after the first.
func (p *Pool) calculateDeposit(amp uint64, credited []*uint256.Int, totalSupply *uint256.Int) (*depositOutcome, error) {
	n := p.CurrencyCount()
	if len(credited) != n {
		return nil, ErrMismatchParameter
	}
	first := totalSupply.IsZero()
	d0 := new(uint256.Int)
	if !first {
		var err error
		if d0, err = p.invariant(amp); err != nil {
			return nil, err
		}
	}

	c := new(checked)
	newBalances := make([]*uint256.Int, n)
	for i := range newBalances {
		newBalances[i] = c.balance(c.add(p.Balances[i], orZero(credited[i])))
	}
	if c.err != nil {
		return nil, c.err
	}
	d1, err := p.invariantOf(newBalances, amp)
	if err != nil {
		return nil, err
	}
	if d1.Cmp(d0) <= 0 {
		return nil, ErrCheckDFailed
	}

	if first {
		return &depositOutcome{
			mint:     d1,
			fees:     zeroAmounts(n),
			balances: newBalances,
			d0:       d0,
			d1:       d1,
		}, nil
	}

	fees, poolBalances, afterFee, err := p.chargeImbalance(d0, d1, newBalances)
	if err != nil {
		return nil, err
	}
	d2, err := p.invariantOf(afterFee, amp)
	if err != nil {
		return nil, err
	}
	mint := c.balance(c.div(c.mul(totalSupply, c.sub(d2, d0)), d0))
	if c.err != nil {
		return nil, c.err
	}
	return &depositOutcome{
		mint:     mint,
		fees:     fees,
		balances: poolBalances,
		d0:       d0,
		d1:       d2,
	}, nil
}

// chargeImbalance taxes each balance's deviation from the ideal proportional
// balance d1*old/d0. It returns the per-currency fee, the balances the pool
// keeps (net of the admin share) and the balances net of the full fee.
func (p *Pool) chargeImbalance(d0, d1 *uint256.Int, newBalances []*uint256.Int) ([]*uint256.Int, []*uint256.Int, []*uint256.Int, error) {
	feePerToken, err := p.feePerToken()
	if err != nil {
		return nil, nil, nil, err
	}
	n := len(newBalances)
	c := new(checked)
	fees := make([]*uint256.Int, n)
	poolBalances := make([]*uint256.Int, n)
	afterFee := make([]*uint256.Int, n)
	for i := 0; i < n; i++ {
		ideal := c.mulDiv(d1, p.Balances[i], d0)
		diff := Distance(newBalances[i], ideal)
		fees[i] = c.div(c.mul(feePerToken, diff), u(FeeDenominator))
		adminShare := c.div(c.mul(fees[i], u(p.AdminFee)), u(FeeDenominator))
		poolBalances[i] = c.sub(newBalances[i], adminShare)
		afterFee[i] = c.sub(newBalances[i], fees[i])
	}
	if c.err != nil {
		return nil, nil, nil, c.err
	}
	return fees, poolBalances, afterFee, nil
}

// calculateRemoveLiquidity returns the pro-rata share of every balance for
// lpAmount of totalSupply.
func (p *Pool) calculateRemoveLiquidity(lpAmount, totalSupply *uint256.Int) ([]*uint256.Int, error) {
	if totalSupply.Cmp(lpAmount) < 0 {
		return nil, ErrInsufficientSupply
	}
	c := new(checked)
	amounts := make([]*uint256.Int, p.CurrencyCount())
	for i, bal := range p.Balances {
		amounts[i] = c.mulDiv(bal, lpAmount, totalSupply)
	}
	if c.err != nil {
		return nil, c.err
	}
	return amounts, nil
}

// withdrawOneOutcome is the result of pricing a single-currency withdrawal.
type withdrawOneOutcome struct {
	dy  *uint256.Int
	fee *uint256.Int
}

// calculateRemoveLiquidityOneCurrency prices burning lpAmount for currency
// index only.
func (p *Pool) calculateRemoveLiquidityOneCurrency(amp uint64, lpAmount *uint256.Int, index int, totalSupply *uint256.Int) (*withdrawOneOutcome, error) {
	if index < 0 || index >= p.CurrencyCount() {
		return nil, ErrCurrencyIndexOutRange
	}
	if totalSupply.IsZero() || totalSupply.Cmp(lpAmount) < 0 {
		return nil, ErrInsufficientSupply
	}
	xp, err := p.normalized()
	if err != nil {
		return nil, err
	}
	d0, err := GetD(xp, amp)
	if err != nil {
		return nil, err
	}
	c := new(checked)
	d1 := c.sub(d0, c.mulDiv(d0, lpAmount, totalSupply))
	if c.err != nil {
		return nil, c.err
	}
	newY, err := GetYD(amp, index, xp, d1)
	if err != nil {
		return nil, err
	}
	feePerToken, err := p.feePerToken()
	if err != nil {
		return nil, err
	}

	reduced := make([]*uint256.Int, len(xp))
	for k, x := range xp {
		var expected *uint256.Int
		if k == index {
			expected = c.sub(c.mulDiv(x, d1, d0), newY)
		} else {
			expected = c.sub(x, c.mulDiv(x, d1, d0))
		}
		reduced[k] = c.sub(x, c.div(c.mul(feePerToken, expected), u(FeeDenominator)))
	}
	if c.err != nil {
		return nil, c.err
	}
	reducedY, err := GetYD(amp, index, reduced, d1)
	if err != nil {
		return nil, err
	}
	multiplier := p.TokenMultipliers[index]
	dy := c.div(c.sub(c.sub(reduced[index], reducedY), u(1)), multiplier)
	fee := c.sub(c.div(c.sub(xp[index], newY), multiplier), dy)
	if c.err != nil {
		return nil, c.err
	}
	return &withdrawOneOutcome{dy: dy, fee: fee}, nil
}

// withdrawImbalanceOutcome is the result of pricing an exact-amount withdrawal.
type withdrawImbalanceOutcome struct {
	burn     *uint256.Int
	fees     []*uint256.Int
	balances []*uint256.Int
	d1       *uint256.Int
}

// calculateRemoveLiquidityImbalance prices withdrawing exact raw amounts.
func (p *Pool) calculateRemoveLiquidityImbalance(amp uint64, amounts []*uint256.Int, totalSupply *uint256.Int) (*withdrawImbalanceOutcome, error) {
	n := p.CurrencyCount()
	if totalSupply.IsZero() {
		return nil, ErrInsufficientSupply
	}
	if len(amounts) != n {
		return nil, ErrMismatchParameter
	}
	d0, err := p.invariant(amp)
	if err != nil {
		return nil, err
	}
	c := new(checked)
	newBalances := make([]*uint256.Int, n)
	for i := range newBalances {
		newBalances[i] = c.sub(p.Balances[i], orZero(amounts[i]))
	}
	if c.err != nil {
		return nil, c.err
	}
	d1, err := p.invariantOf(newBalances, amp)
	if err != nil {
		return nil, err
	}
	fees, poolBalances, afterFee, err := p.chargeImbalance(d0, d1, newBalances)
	if err != nil {
		return nil, err
	}
	d2, err := p.invariantOf(afterFee, amp)
	if err != nil {
		return nil, err
	}
	burn := c.div(c.mul(totalSupply, c.sub(d0, d2)), d0)
	if c.err != nil {
		return nil, c.err
	}
	return &withdrawImbalanceOutcome{burn: burn, fees: fees, balances: poolBalances, d1: d2}, nil
}

// calculateCurrencyAmount estimates the LP minted for a deposit, or burned for
// a withdrawal, ignoring fees.
func (p *Pool) calculateCurrencyAmount(amp uint64, amounts []*uint256.Int, deposit bool, totalSupply *uint256.Int) (*uint256.Int, error) {
	n := p.CurrencyCount()
	if len(amounts) != n {
		return nil, ErrMismatchParameter
	}
	d0, err := p.invariant(amp)
	if err != nil {
		return nil, err
	}
	c := new(checked)
	balances := make([]*uint256.Int, n)
	for i := range balances {
		if deposit {
			balances[i] = c.balance(c.add(p.Balances[i], orZero(amounts[i])))
		} else {
			balances[i] = c.sub(p.Balances[i], orZero(amounts[i]))
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	d1, err := p.invariantOf(balances, amp)
	if err != nil {
		return nil, err
	}
	if totalSupply.IsZero() {
		return d1, nil
	}
	var diff *uint256.Int
	if deposit {
		diff = c.sub(d1, d0)
	} else {
		diff = c.sub(d0, d1)
	}
	amount := c.div(c.mul(diff, totalSupply), d0)
	if c.err != nil {
		return nil, c.err
	}
	return amount, nil
}

// virtualPrice returns D*1e18/totalSupply, or zero for an empty pool.
func (p *Pool) virtualPrice(amp uint64, totalSupply *uint256.Int) (*uint256.Int, error) {
	if totalSupply.IsZero() {
		return new(uint256.Int), nil
	}
	d, err := p.invariant(amp)
	if err != nil {
		return nil, err
	}
	c := new(checked)
	price := c.mulDiv(d, new(uint256.Int).Exp(u(10), u(PoolTokenCommonDecimals)), totalSupply)
	if c.err != nil {
		return nil, c.err
	}
	return price, nil
}
